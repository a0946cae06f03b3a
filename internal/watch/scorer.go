package watch

import (
	"fmt"
	"sort"
	"strings"
)

// TriggerKeywords are the terms that signal high-impact legislative or
// policy changes when present in fetched content.
var TriggerKeywords = []string{
	"visa", "requirement", "criterion", "criteria",
	"repeal", "repealed", "schedule", "regulation",
	"english", "financial", "occupation", "specified work", "exemption",
}

// HighTierSourceTypes are the source types carrying statute-level or
// subordinate-regulation-level authority.
var HighTierSourceTypes = map[string]bool{
	"FRL_ACT":  true,
	"FRL_REGS": true,
}

// ReviewThreshold is the impact score at or above which a change is
// routed to human review.
const ReviewThreshold = 70

// diffRatioThreshold is the fraction of differing bytes above which the
// magnitude rule fires.
const diffRatioThreshold = 0.05

// ScoreResult is the outcome of scoring a single detected change.
// Signals hold one human-readable line per rule that fired, in rule
// order, so a reviewer can reconstruct the score without re-running the
// scorer.
type ScoreResult struct {
	ImpactScore    int // 0-100
	RequiresReview bool
	Signals        []string
}

// Score computes a deterministic 0-100 impact score for a detected
// change. prevContent is nil when no prior capture exists. Rules are
// additive and evaluated in fixed order:
//
//	+10  base, always
//	+40  byte-diff ratio over the overlapping prefix exceeds 5% of the
//	     previous size (only when prevContent is non-nil)
//	+20  initial snapshot, assumed partially significant (prevContent nil)
//	+30  one or more trigger keywords present, counted once
//	+20  high-tier source type
//
// The sum is clamped to [0,100] and RequiresReview is true iff the
// clamped score reaches ReviewThreshold. Callers invoke this only after a
// hash difference is established; the function itself does not
// special-case equal inputs.
//
// The diff ratio counts differing bytes over min(len(prev), len(curr))
// positions only: content that grows without altering its shared prefix
// scores 0% here. That is an accepted heuristic limitation, kept
// deliberately.
func Score(prevContent []byte, currContent []byte, sourceType string) ScoreResult {
	var signals []string
	total := 0

	// Base: any change at all.
	total += 10
	signals = append(signals, "base: change detected (+10)")

	if prevContent != nil {
		prevSize := len(prevContent)
		if prevSize < 1 {
			prevSize = 1
		}
		overlap := len(prevContent)
		if len(currContent) < overlap {
			overlap = len(currContent)
		}
		differing := 0
		for i := 0; i < overlap; i++ {
			if prevContent[i] != currContent[i] {
				differing++
			}
		}
		diffRatio := float64(differing) / float64(prevSize)
		if diffRatio > diffRatioThreshold {
			total += 40
			signals = append(signals, fmt.Sprintf("large diff: %.1f%% of document changed (+40)", diffRatio*100))
		}
	} else {
		// No prior capture to diff against; conservatively treated as
		// partially significant rather than zero.
		total += 20
		signals = append(signals, "initial snapshot: no prev hash, assumed significant (+20)")
	}

	// Keyword match fires at most once regardless of how many terms hit
	// or how often each term occurs. Undecodable bytes are dropped, never
	// fatal.
	text := strings.ToLower(strings.ToValidUTF8(string(currContent), ""))
	var matched []string
	for _, kw := range TriggerKeywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		sort.Strings(matched)
		total += 30
		signals = append(signals, fmt.Sprintf("keyword match: %v (+30)", matched))
	}

	if HighTierSourceTypes[sourceType] {
		total += 20
		signals = append(signals, fmt.Sprintf("high-tier source type: %s (+20)", sourceType))
	}

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	return ScoreResult{
		ImpactScore:    total,
		RequiresReview: total >= ReviewThreshold,
		Signals:        signals,
	}
}
