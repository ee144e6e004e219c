/*
rule.go - Rule contract and result types

PURPOSE:
  Defines what a compliance rule is and what it produces. Every rule is a
  pure function over the Context: no storage, no clock, no state between
  evaluations. The rule set is a fixed, ordered, versioned list - there is
  deliberately no dynamic registration or reflection-based dispatch.

OUTCOMES:
  pass           - threshold respected; detail records what was checked
  fail           - statute violated; detail carries the violating values,
                   every affected date/entry, and remediation guidance
  not_applicable - the rule's precondition did not hold this week (e.g. a
                   school-week rule against a non-school week). Distinct
                   from pass on purpose: auditors care.

TIE-BREAK POLICY:
  When several entries in a day violate the same rule, the FIRST
  chronological violation is the representative failure; AffectedDates and
  AffectedEntries still list every instance so callers can surface all of
  them.
*/
package compliance

import (
	"time"

	"github.com/harvestrow/labor-engine/labor"
)

// =============================================================================
// RULE CONTRACT
// =============================================================================

type Category string

const (
	CategoryHours         Category = "hours"
	CategoryTimeWindow    Category = "time_window"
	CategoryDocumentation Category = "documentation"
)

// Rule is one statute check. Implementations live in hours.go, window.go and
// documents.go; the closed set is assembled in engine.go.
type Rule interface {
	// ID is the stable identifier persisted with every check result.
	ID() string

	// Name is the human-readable rule name.
	Name() string

	Category() Category

	// AppliesTo returns the age bands this rule governs. The engine skips a
	// rule entirely when no day of the week falls in any of its bands.
	AppliesTo() []AgeBand

	Evaluate(ctx *Context) Result
}

// =============================================================================
// RESULTS
// =============================================================================

type Outcome string

const (
	OutcomePass          Outcome = "pass"
	OutcomeFail          Outcome = "fail"
	OutcomeNotApplicable Outcome = "not_applicable"
)

// Result is one rule's outcome for one week. Persisted once per (week, rule)
// at submission time and never mutated.
type Result struct {
	RuleID   string
	RuleName string
	Category Category
	Outcome  Outcome

	// Failure contract, stable for UI/export consumers.
	ErrorMessage        string
	RemediationGuidance string
	AffectedDates       []string // YYYY-MM-DD
	AffectedEntries     []string // entry IDs

	// Structured diagnostic payload: thresholds, checked values.
	Detail map[string]any

	// Employee's age on the date the check was run.
	AgeAtCheck int
}

func pass(r Rule, ctx *Context, detail map[string]any) Result {
	return Result{
		RuleID:     r.ID(),
		RuleName:   r.Name(),
		Category:   r.Category(),
		Outcome:    OutcomePass,
		Detail:     detail,
		AgeAtCheck: AgeOn(ctx.Employee.DateOfBirth, ctx.CheckDate),
	}
}

func notApplicable(r Rule, ctx *Context, reason string) Result {
	return Result{
		RuleID:     r.ID(),
		RuleName:   r.Name(),
		Category:   r.Category(),
		Outcome:    OutcomeNotApplicable,
		Detail:     map[string]any{"reason": reason},
		AgeAtCheck: AgeOn(ctx.Employee.DateOfBirth, ctx.CheckDate),
	}
}

func fail(r Rule, ctx *Context, msg, remediation string, dates []time.Time, entryIDs []string, detail map[string]any) Result {
	ds := make([]string, len(dates))
	for i, d := range dates {
		ds[i] = labor.DateOnly(d).Format("2006-01-02")
	}
	return Result{
		RuleID:              r.ID(),
		RuleName:            r.Name(),
		Category:            r.Category(),
		Outcome:             OutcomeFail,
		ErrorMessage:        msg,
		RemediationGuidance: remediation,
		AffectedDates:       ds,
		AffectedEntries:     entryIDs,
		Detail:              detail,
		AgeAtCheck:          AgeOn(ctx.Employee.DateOfBirth, ctx.CheckDate),
	}
}

// bandsContain reports whether target is in the rule's band list.
func bandsContain(bands []AgeBand, target AgeBand) bool {
	for _, b := range bands {
		if b == target {
			return true
		}
	}
	return false
}
