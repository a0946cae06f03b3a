package testutil

import (
	"context"
	"fmt"
)

// StubFetcher serves canned responses keyed by URL.
type StubFetcher struct {
	Responses map[string][]byte
	// Err, when set, is returned for every fetch.
	Err error
	// Calls records the URLs fetched, in order.
	Calls []string
}

// NewStubFetcher creates a StubFetcher with no responses configured.
func NewStubFetcher() *StubFetcher {
	return &StubFetcher{Responses: make(map[string][]byte)}
}

// Set registers the response body for a URL.
func (f *StubFetcher) Set(url string, body []byte) {
	f.Responses[url] = body
}

func (f *StubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.Calls = append(f.Calls, url)
	if f.Err != nil {
		return nil, f.Err
	}
	body, ok := f.Responses[url]
	if !ok {
		return nil, fmt.Errorf("no stub response for %s", url)
	}
	return body, nil
}
