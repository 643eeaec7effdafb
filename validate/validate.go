package validate

import (
	"fmt"

	"github.com/veritrade/exportcert/model"
)

type Mode string

const (
	// Partial checks only the answers actually submitted; used on every
	// incremental page save.
	Partial Mode = "PARTIAL"
	// Consignment validates one certificate's view: its own answers plus
	// any shared application answers it does not override.
	Consignment Mode = "CONSIGNMENT"
	// Complete validates the whole application before submission.
	Complete Mode = "COMPLETE"
)

type Request struct {
	Schema  model.ComposedSchema
	Answers []model.Answer
	// Common carries the application-level answers merged in during
	// Consignment validation. Ignored by the other modes.
	Common []model.Answer
	// MultipleApplication marks the certificate kind that spreads one
	// application over several certificate instances; Complete validation
	// then leaves application-level pages to the per-certificate passes.
	MultipleApplication bool
}

// Answers evaluates one answer set against the composed schema in the
// given mode. The result is the ordered field error list: per-answer
// failures first (in answer order), then missing-required findings (in
// schema order).
func Answers(req Request, mode Mode) []model.ValidationError {
	checked := req.Answers
	if mode == Consignment {
		checked = mergeCommon(req.Answers, req.Common)
	}

	perAnswer := questionScope(req.Schema, mode, req.MultipleApplication, false)
	var errs []model.ValidationError
	for _, a := range checked {
		q, ok := perAnswer[a.FormQuestionID]
		if !ok {
			continue
		}
		if skipQuestion(q) {
			continue
		}
		if e, failed := firstFailure(q, a); failed {
			errs = append(errs, e)
		}
	}

	if mode == Partial {
		return errs
	}

	answered := make(map[int]bool, len(checked))
	for _, a := range checked {
		answered[a.FormQuestionID] = true
	}
	errs = append(errs, missingRequired(req.Schema, mode, req.MultipleApplication, answered)...)
	return errs
}

// firstFailure walks the question's constraint chain and reports the first
// rule the value breaks. Later rules are not evaluated.
func firstFailure(q model.ComposedQuestion, a model.Answer) (model.ValidationError, bool) {
	for _, c := range constraintChain(q) {
		if !c.ok(a.Value, q) {
			return model.ValidationError{
				FormQuestionID: q.ID,
				Message:        c.message,
				ConstraintType: c.ctype,
			}, true
		}
	}
	return model.ValidationError{}, false
}

func missingRequired(schema model.ComposedSchema, mode Mode, multiple bool, answered map[int]bool) []model.ValidationError {
	var errs []model.ValidationError
	for _, q := range orderedQuestions(schema, mode, multiple, true) {
		if skipQuestion(q) || answered[q.ID] {
			continue
		}
		for _, c := range q.Constraints {
			if c.Type != model.ConstraintRequired {
				continue
			}
			errs = append(errs, model.ValidationError{
				FormQuestionID: q.ID,
				Message:        c.Message,
				ConstraintType: c.Type,
			})
			break
		}
	}
	return errs
}

// questionScope indexes the questions a mode considers. Per-answer checks
// run over the full schema except in the multiple-application Complete
// pass, where application-level pages belong to the per-certificate
// passes. Missing-required detection is narrower: Consignment restricts it
// to the certificate-page subset, and the multiple-application Complete
// pass to the pages shared by every certificate.
func questionScope(schema model.ComposedSchema, mode Mode, multiple, missing bool) map[int]model.ComposedQuestion {
	byID := make(map[int]model.ComposedQuestion)
	for _, q := range orderedQuestions(schema, mode, multiple, missing) {
		byID[q.ID] = q
	}
	return byID
}

func orderedQuestions(schema model.ComposedSchema, mode Mode, multiple, missing bool) []model.ComposedQuestion {
	var out []model.ComposedQuestion
	for _, p := range schema.Pages {
		if !pageInScope(p.Kind, mode, multiple, missing) {
			continue
		}
		out = append(out, p.Questions...)
	}
	return out
}

func pageInScope(kind model.PageKind, mode Mode, multiple, missing bool) bool {
	switch mode {
	case Consignment:
		if missing {
			return kind != model.ApplicationLevel
		}
		return true
	case Complete:
		if !multiple {
			return true
		}
		if missing {
			return kind == model.CommonForAllCertificates
		}
		return kind != model.ApplicationLevel
	default:
		return true
	}
}

// skipQuestion excludes the reserved upload question (and upload-typed
// questions generally) from validation.
func skipQuestion(q model.ComposedQuestion) bool {
	return q.ID == model.UploadQuestionID || q.Type == model.QuestionUpload
}

// mergeCommon adds the shared application answers a certificate has not
// overridden with its own, keyed by (question, occurrence) identity.
func mergeCommon(own, common []model.Answer) []model.Answer {
	type key struct{ question, occurrence int }
	seen := make(map[key]bool, len(own))
	for _, a := range own {
		seen[key{a.FormQuestionID, a.PageOccurrence}] = true
	}

	merged := make([]model.Answer, len(own), len(own)+len(common))
	copy(merged, own)
	for _, a := range common {
		if !seen[key{a.FormQuestionID, a.PageOccurrence}] {
			merged = append(merged, a)
		}
	}
	return merged
}

// Application runs Complete validation over a whole application, including
// the multi-certificate aggregate rules for "multiple application"
// certificate kinds. The caller rejects admission when the report is
// non-empty.
func Application(schema model.ComposedSchema, app model.Application, hc model.HealthCertificate) model.ValidationReport {
	var report model.ValidationReport

	if !hc.Multiple {
		report.Errors = Answers(Request{Schema: schema, Answers: app.Answers}, Complete)
		return report
	}

	report.Errors = Answers(Request{
		Schema:              schema,
		Answers:             app.Answers,
		MultipleApplication: true,
	}, Complete)

	if len(app.Certificates) == 0 {
		report.Common = append(report.Common, "the application must contain at least one certificate")
	}
	if hc.MaxCertificates > 0 && len(app.Certificates) > hc.MaxCertificates {
		report.Common = append(report.Common,
			fmt.Sprintf("the application must not contain more than %d certificates", hc.MaxCertificates))
	}

	for _, cert := range app.Certificates {
		errs := Answers(Request{
			Schema:  schema,
			Answers: cert.Answers,
			Common:  app.Answers,
		}, Consignment)
		if len(errs) == 0 {
			continue
		}
		report.Errors = append(report.Errors, errs...)
		report.Certificates = append(report.Certificates, model.CertificateError{
			CertificateID: cert.ID,
			Reference:     cert.ReferenceAnswer(),
			ErrorCount:    len(errs),
		})
	}
	return report
}
