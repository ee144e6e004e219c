/*
documents.go - Documentation rules

REQUIREMENTS:
  Any week containing a day where the employee is a minor requires:
    - a non-revoked parental consent (all minors)
    - a non-revoked, non-expired work permit (ages 14-17)
    - a safety-training record (all minors)

  "Required but missing", "present but expired" and "present but revoked"
  are reported as distinct detail, but each document type rolls up to one
  pass/fail outcome. Expiry is judged against the check date.
*/
package compliance

import (
	"fmt"
	"time"

	"github.com/harvestrow/labor-engine/labor"
)

type documentRule struct {
	id          string
	name        string
	bands       []AgeBand
	docType     labor.DocumentType
	checkExpiry bool
	remediation string
}

func (r *documentRule) ID() string           { return r.id }
func (r *documentRule) Name() string         { return r.name }
func (r *documentRule) Category() Category   { return CategoryDocumentation }
func (r *documentRule) AppliesTo() []AgeBand { return r.bands }

func (r *documentRule) Evaluate(ctx *Context) Result {
	// Days that make the document required: worked days in the rule's bands.
	var requiredDays []time.Time
	for _, day := range ctx.WorkedDays() {
		if bandsContain(r.bands, ctx.DailyBands[day]) {
			requiredDays = append(requiredDays, day)
		}
	}
	if len(requiredDays) == 0 {
		return notApplicable(r, ctx, "no worked days in the governed age bands")
	}

	status := r.documentStatus(ctx)
	if status == "valid" {
		return pass(r, ctx, map[string]any{"documentType": string(r.docType), "status": status})
	}

	var msg string
	switch status {
	case "missing":
		msg = fmt.Sprintf("required %s document is missing", r.docType)
	case "revoked":
		msg = fmt.Sprintf("%s document on file has been revoked", r.docType)
	case "expired":
		msg = fmt.Sprintf("%s document on file expired before %s",
			r.docType, ctx.CheckDate.Format("2006-01-02"))
	}
	return fail(r, ctx, msg, r.remediation, requiredDays, nil, map[string]any{
		"documentType": string(r.docType),
		"status":       status,
	})
}

// documentStatus classifies the best document of the rule's type:
// valid > expired > revoked > missing. A single valid document satisfies the
// rule regardless of how many stale ones also exist.
func (r *documentRule) documentStatus(ctx *Context) string {
	status := "missing"
	for _, d := range ctx.Documents {
		if d.Type != r.docType {
			continue
		}
		if d.Revoked() {
			if status == "missing" {
				status = "revoked"
			}
			continue
		}
		if r.checkExpiry && d.ExpiredOn(ctx.CheckDate) {
			status = "expired"
			continue
		}
		return "valid"
	}
	return status
}
