package watch

import "context"

// Fetcher retrieves the raw bytes behind a locator. Implementations fail
// with a network-error kind on non-2xx status or timeout and perform no
// retries; the caller (typically a scheduler) owns retry policy.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
