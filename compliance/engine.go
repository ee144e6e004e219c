/*
engine.go - Rule evaluation engine

PURPOSE:
  Holds the fixed, ordered rule set and evaluates all of it against a week's
  Context. The engine never short-circuits: callers always receive every
  rule's Result, because the submission UI must surface every violation at
  once, not one per round trip.

SUBMIT GATE:
  A week is submit-eligible only when zero rules returned fail. Callers run
  EvaluateWeek, persist the full result list, and transition the week only
  on an all-clear.

RULE SET VERSIONING:
  The rule set is a plain ordered slice assembled in DefaultRules(). Adding
  a statute means adding an implementation and a line here - no plugin
  loading, no reflection.
*/
package compliance

import (
	"github.com/shopspring/decimal"

	"github.com/harvestrow/labor-engine/labor"
)

// Engine evaluates a closed rule set against week contexts. It holds no
// per-evaluation state; one Engine can serve concurrent requests.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with the given ordered rule set.
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// NewDefaultEngine creates an engine with the full statutory rule set.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultRules())
}

// Rules returns the engine's rule set in evaluation order.
func (e *Engine) Rules() []Rule { return e.rules }

// EvaluateWeek runs every applicable rule and returns the complete list of
// results. Rules whose age bands never occur in the week are skipped
// entirely (not even reported as N/A): an adult's week produces an empty
// result list and is trivially submit-eligible.
func (e *Engine) EvaluateWeek(ctx *Context) []Result {
	var results []Result
	for _, rule := range e.rules {
		if !ctx.HasBand(rule.AppliesTo()...) {
			continue
		}
		results = append(results, rule.Evaluate(ctx))
	}
	return results
}

// SubmitEligible reports whether a result list gates the open -> submitted
// transition: true only with zero failures.
func SubmitEligible(results []Result) bool {
	for _, r := range results {
		if r.Outcome == OutcomeFail {
			return false
		}
	}
	return true
}

// Failures filters a result list down to the failed rules.
func Failures(results []Result) []Result {
	var fails []Result
	for _, r := range results {
		if r.Outcome == OutcomeFail {
			fails = append(fails, r)
		}
	}
	return fails
}

// DefaultRules returns the statutory rule set, in evaluation order:
// hour caps, then time windows, then documentation.
func DefaultRules() []Rule {
	schoolWeek := true
	nonSchoolWeek := false

	return []Rule{
		// Hours: 12-13
		&dailyLimitRule{
			id:    "daily-hours-12-13",
			name:  "Daily hour limit (12-13)",
			bands: []AgeBand{Band12To13},
			limit: decimal.NewFromInt(4),
		},
		&weeklyLimitRule{
			id:    "weekly-hours-12-13",
			name:  "Weekly hour limit (12-13)",
			bands: []AgeBand{Band12To13},
			limit: decimal.NewFromInt(24),
		},

		// Hours: 14-15
		&schoolDayLimitRule{
			id:    "school-day-hours-14-15",
			bands: []AgeBand{Band14To15},
			limit: decimal.NewFromInt(3),
		},
		&nonSchoolDayLimitRule{
			id:    "non-school-day-hours-14-15",
			bands: []AgeBand{Band14To15},
			limit: decimal.NewFromInt(8),
		},
		&weeklyLimitRule{
			id:         "weekly-hours-school-14-15",
			name:       "School-week hour limit (14-15)",
			bands:      []AgeBand{Band14To15},
			limit:      decimal.NewFromInt(18),
			schoolWeek: &schoolWeek,
		},
		&weeklyLimitRule{
			id:         "weekly-hours-non-school-14-15",
			name:       "Non-school-week hour limit (14-15)",
			bands:      []AgeBand{Band14To15},
			limit:      decimal.NewFromInt(40),
			schoolWeek: &nonSchoolWeek,
		},

		// Hours: 16-17
		&dailyLimitRule{
			id:    "daily-hours-16-17",
			name:  "Daily hour limit (16-17)",
			bands: []AgeBand{Band16To17},
			limit: decimal.NewFromInt(9),
		},
		&weeklyLimitRule{
			id:    "weekly-hours-16-17",
			name:  "Weekly hour limit (16-17)",
			bands: []AgeBand{Band16To17},
			limit: decimal.NewFromInt(48),
		},
		&maxWorkDaysRule{
			id:      "max-work-days-16-17",
			bands:   []AgeBand{Band16To17},
			maxDays: 6,
		},

		// Time windows
		&schoolHoursRule{
			id:    "school-hours-under-16",
			bands: []AgeBand{Band12To13, Band14To15},
		},
		&minorWindowRule{
			id:    "work-window-14-15",
			bands: []AgeBand{Band14To15},
		},
		&olderMinorWindowRule{
			id:    "work-window-16-17",
			bands: []AgeBand{Band16To17},
		},

		// Documentation
		&documentRule{
			id:          "doc-parental-consent",
			name:        "Parental consent on file",
			bands:       []AgeBand{Band12To13, Band14To15, Band16To17},
			docType:     labor.DocParentalConsent,
			remediation: "Collect a signed parental consent form before the minor's next shift.",
		},
		&documentRule{
			id:          "doc-work-permit",
			name:        "Valid work permit on file",
			bands:       []AgeBand{Band14To15, Band16To17},
			docType:     labor.DocWorkPermit,
			checkExpiry: true,
			remediation: "Obtain or renew the state work permit for this employee.",
		},
		&documentRule{
			id:          "doc-safety-training",
			name:        "Safety training completed",
			bands:       []AgeBand{Band12To13, Band14To15, Band16To17},
			docType:     labor.DocSafetyTraining,
			remediation: "Complete and record the required safety training session.",
		},
	}
}
