// Package seed populates the knowledge base tables from JSON seed files.
// All writes are upserts, so loading the same directory twice is safe.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"kbwatch/internal/model"
	"kbwatch/internal/schema"
	"kbwatch/internal/watch"
)

// Store is the subset of the repository the loader writes through.
type Store interface {
	UpsertVisaSubclass(v *model.VisaSubclass) error
	UpsertRequirement(id, subclassCode string, payload []byte) error
	UpsertEvidenceItem(id, requirementID string, payload []byte) error
	UpsertFlagTemplate(id string, payload []byte) error
}

// VisaSubclasses is the built-in catalog of watched visa subclasses.
var VisaSubclasses = []model.VisaSubclass{
	{SubclassCode: "500", Stream: "", Name: "Student", Description: "International student visa"},
	{SubclassCode: "485", Stream: "", Name: "Temporary Graduate", Description: "Post-study graduate visa"},
	{SubclassCode: "482", Stream: "SID", Name: "Temporary Skill Shortage (SID)", Description: "Employer-sponsored TSS, Short-term and Medium-term streams"},
	{SubclassCode: "417", Stream: "", Name: "Working Holiday", Description: "Working Holiday Maker, first, second, and third grant"},
	{SubclassCode: "820", Stream: "", Name: "Partner (onshore)", Description: "Partner visa, onshore temporary (820) to permanent (801)"},
	{SubclassCode: "309", Stream: "", Name: "Partner (offshore)", Description: "Partner visa, offshore temporary (309) to permanent (100)"},
}

// Result reports how many records of each kind were loaded, plus any
// per-record validation or decode errors that were skipped.
type Result struct {
	Subclasses    int
	Requirements  int
	EvidenceItems int
	FlagTemplates int
	Errors        []string
}

// Loader validates and upserts seed records.
type Loader struct {
	store     Store
	validator *schema.Validator
	logger    watch.Logger
	dryRun    bool
}

// NewLoader creates a seed loader. In dry-run mode records are validated
// and counted but nothing is written to the store.
func NewLoader(store Store, validator *schema.Validator, logger watch.Logger, dryRun bool) *Loader {
	if logger == nil {
		logger = &watch.NopLogger{}
	}
	return &Loader{store: store, validator: validator, logger: logger, dryRun: dryRun}
}

// Load runs the full seed load from dir. Individual bad records are
// recorded in Result.Errors and skipped; the load keeps going.
func (l *Loader) Load(dir string) (*Result, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("seed directory %s: %w", dir, err)
	}

	res := &Result{}
	l.loadSubclasses(res)
	if err := l.loadFiles(dir, "visa_*_requirements*.json", "Requirement", res, l.applyRequirement, &res.Requirements); err != nil {
		return nil, err
	}
	if err := l.loadFiles(dir, "visa_*_evidence_items.json", "EvidenceItem", res, l.applyEvidenceItem, &res.EvidenceItems); err != nil {
		return nil, err
	}
	if err := l.loadFiles(dir, "visa_*_flags.json", "FlagTemplate", res, l.applyFlagTemplate, &res.FlagTemplates); err != nil {
		return nil, err
	}

	l.logger.Info("seed load finished",
		"subclasses", res.Subclasses,
		"requirements", res.Requirements,
		"evidence_items", res.EvidenceItems,
		"flag_templates", res.FlagTemplates,
		"errors", len(res.Errors),
		"dry_run", l.dryRun)
	return res, nil
}

func (l *Loader) loadSubclasses(res *Result) {
	for i := range VisaSubclasses {
		v := VisaSubclasses[i]
		if !l.dryRun {
			if err := l.store.UpsertVisaSubclass(&v); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("visa_subclass %s: %v", v.SubclassCode, err))
				continue
			}
		}
		res.Subclasses++
	}
}

// applyFunc upserts one validated record and returns an error for the
// Result.Errors list when the record is malformed for storage.
type applyFunc func(raw json.RawMessage) error

func (l *Loader) loadFiles(dir, pattern, modelType string, res *Result, apply applyFunc, count *int) error {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return fmt.Errorf("globbing %s: %w", pattern, err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading seed file %s: %w", path, err)
		}

		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			// A seed file may hold a single object instead of a list.
			var single json.RawMessage
			if err2 := json.Unmarshal(raw, &single); err2 != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: not valid JSON: %v", filepath.Base(path), err))
				continue
			}
			items = []json.RawMessage{single}
		}

		name := filepath.Base(path)
		l.logger.Info("loading seed file", "file", name, "model_type", modelType, "records", len(items))
		for i, item := range items {
			if err := l.validator.ValidateRaw(modelType, item); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s[%d]: %v", name, i, err))
				continue
			}
			if !l.dryRun {
				if err := apply(item); err != nil {
					res.Errors = append(res.Errors, fmt.Sprintf("%s[%d]: %v", name, i, err))
					continue
				}
			}
			*count++
		}
	}
	return nil
}

// requirementKey is the slice of a requirement record the loader needs
// for upsert keys; the full record rides along as the payload.
type requirementKey struct {
	RequirementID string `json:"requirement_id"`
	Visa          struct {
		Subclass string `json:"subclass"`
	} `json:"visa"`
}

func (l *Loader) applyRequirement(raw json.RawMessage) error {
	var key requirementKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return err
	}
	return l.store.UpsertRequirement(key.RequirementID, key.Visa.Subclass, raw)
}

func (l *Loader) applyEvidenceItem(raw json.RawMessage) error {
	var key struct {
		EvidenceID    string `json:"evidence_id"`
		RequirementID string `json:"requirement_id"`
	}
	if err := json.Unmarshal(raw, &key); err != nil {
		return err
	}
	return l.store.UpsertEvidenceItem(key.EvidenceID, key.RequirementID, raw)
}

func (l *Loader) applyFlagTemplate(raw json.RawMessage) error {
	var key struct {
		FlagID string `json:"flag_id"`
	}
	if err := json.Unmarshal(raw, &key); err != nil {
		return err
	}
	return l.store.UpsertFlagTemplate(key.FlagID, raw)
}
