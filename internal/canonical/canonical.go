// Package canonical holds the per-family content canonicalizers applied
// between fetch and hash. Each is a pure transformation: raw response
// bytes in, canonical content bytes plus extracted metadata out.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gowebpki/jcs"
)

// CKANMetadata extracts the result object from a CKAN package_show
// envelope and re-serializes it as RFC 8785 canonical JSON, so hashes
// stay stable across key-order or whitespace churn in the API response.
// Fails when the envelope reports success=false or is not JSON.
func CKANMetadata(raw []byte) ([]byte, map[string]any, error) {
	var envelope struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decoding CKAN response: %w", err)
	}
	if !envelope.Success {
		return nil, nil, fmt.Errorf("CKAN API returned success=false")
	}

	content, err := jcs.Transform(envelope.Result)
	if err != nil {
		return nil, nil, fmt.Errorf("canonicalizing CKAN result: %w", err)
	}

	var result struct {
		ID               string            `json:"id"`
		Name             string            `json:"name"`
		MetadataModified string            `json:"metadata_modified"`
		Resources        []json.RawMessage `json:"resources"`
	}
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return nil, nil, fmt.Errorf("decoding CKAN result: %w", err)
	}

	datasetID := result.Name
	if datasetID == "" {
		datasetID = result.ID
	}
	meta := map[string]any{
		"dataset_id":        datasetID,
		"metadata_modified": result.MetadataModified,
		"resource_count":    len(result.Resources),
	}
	return content, meta, nil
}

// HTMLSections returns the normalized text of a page's main content
// region. Headings, paragraphs, and list items inside <main> (falling
// back to <article>, then <body>) are trimmed and joined with newlines;
// navigation and boilerplate outside the region never reach the hash.
func HTMLSections(raw []byte) ([]byte, map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}

	region := doc.Find("main").First()
	if region.Length() == 0 {
		region = doc.Find("article").First()
	}
	if region.Length() == 0 {
		region = doc.Find("body").First()
	}
	if region.Length() == 0 {
		region = doc.Selection
	}

	var lines []string
	region.Find("h1, h2, h3, h4, p, li").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		if text := strings.TrimSpace(region.Text()); text != "" {
			lines = append(lines, text)
		}
	}

	meta := map[string]any{"section_count": len(lines)}
	return []byte(strings.Join(lines, "\n")), meta, nil
}
