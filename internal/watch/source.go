package watch

import "fmt"

// NormalizeFunc converts raw fetched bytes into the canonical content
// that gets hashed, snapshotted, and scored, plus any family metadata
// extracted along the way (dataset fields, section counts, ...).
type NormalizeFunc func(raw []byte) (content []byte, meta map[string]any, err error)

// Identity is the no-op normalizer for sources compared byte-exact.
func Identity(raw []byte) ([]byte, map[string]any, error) {
	return raw, map[string]any{}, nil
}

// Source describes one watched external resource. Families (legislation
// register, open-data catalog, department pages) differ only in the
// fields here (fetch locator, normalizer, update tag, summary); the
// scoring and event-decision logic is shared in WatchService.
type Source struct {
	// ID names the source in snapshot files and summaries,
	// e.g. "frl_migration_act".
	ID string

	// Type is the authority tier used as a scoring input,
	// e.g. FRL_ACT, FRL_REGS, HOMEAFFAIRS_PAGE, DATAGOV_DATASET.
	Type string

	Title string

	// URL is the fetch locator.
	URL string

	// CanonicalURL is the stable identity key for latest-document lookups.
	CanonicalURL string

	// Normalize canonicalizes fetched bytes before hashing.
	// Nil means Identity.
	Normalize NormalizeFunc

	// UpdateChangeType refines the generic change_detected tag for
	// non-initial events ("text_change", "dataset_update").
	UpdateChangeType string

	// Summary opens the change-event summary line for this source, given
	// the normalizer's metadata. Nil gets a generic line.
	Summary func(meta map[string]any) string
}

func (s Source) validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("source: id is required")
	case s.Type == "":
		return fmt.Errorf("source %s: type is required", s.ID)
	case s.URL == "":
		return fmt.Errorf("source %s: url is required", s.ID)
	case s.CanonicalURL == "":
		return fmt.Errorf("source %s: canonical_url is required", s.ID)
	}
	return nil
}

func (s Source) summaryLine(meta map[string]any) string {
	if s.Summary != nil {
		return s.Summary(meta)
	}
	return fmt.Sprintf("Change detected for %s.", s.ID)
}
