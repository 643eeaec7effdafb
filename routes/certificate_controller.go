package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/veritrade/exportcert/answers"
	"github.com/veritrade/exportcert/app"
	"github.com/veritrade/exportcert/httpx"
	"github.com/veritrade/exportcert/log"
	"github.com/veritrade/exportcert/model"
	"github.com/veritrade/exportcert/reconcile"
	"github.com/veritrade/exportcert/validate"
)

// AddCertificate creates one more certificate instance ("consignment") in
// a multiple-application kind, with the next sequential reference number.
func AddCertificate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		application, ok := loadWritableApplication(w, r, app)
		if !ok {
			return
		}

		hc, ok := loadHealthCertificate(w, r, app, application)
		if !ok {
			return
		}
		if !hc.Multiple {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "certificate.not_multiple",
				"certificate %s does not allow multiple certificates per application", hc.Number)
			return
		}
		if len(application.Certificates) >= hc.MaxCertificates {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "certificate.max_reached",
				"application %s already has %d certificates", application.ID, hc.MaxCertificates)
			return
		}

		cert, err := app.Answers.AddCertificate(r.Context(), application.ID)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_certificate", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, cert)
	}
}

func SaveCertificateAnswers(app app.App) http.HandlerFunc {
	type request struct {
		Answers []model.Answer `json:"answers"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		application, ok := loadWritableApplication(w, r, app)
		if !ok {
			return
		}
		cert, ok := loadCertificate(w, r, app, application)
		if !ok {
			return
		}

		schema, ok := composeSchema(w, r, app, application)
		if !ok {
			return
		}

		errs := validate.Answers(validate.Request{Schema: schema, Answers: req.Answers}, validate.Partial)
		if len(errs) > 0 {
			renderReport(w, r, model.ValidationReport{Errors: errs})
			return
		}

		merged, err := app.Answers.ReplaceAnswers(r.Context(), cert.ID, func(existing []model.Answer) []model.Answer {
			return reconcile.Merge(existing, req.Answers)
		})
		if err != nil {
			httpx.LogInternalError(w, "db.save_answers", err)
			return
		}

		render.JSON(w, r, map[string]any{"answers": merged})
	}
}

// ValidateCertificate reports one certificate's Consignment view: its own
// answers plus the shared application answers it does not override. The
// report is a normal 200 payload, empty or not; only Complete submission
// gates on it.
func ValidateCertificate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		application, ok := loadApplication(w, r, app)
		if !ok {
			return
		}
		cert, ok := loadCertificate(w, r, app, application)
		if !ok {
			return
		}

		schema, ok := composeSchema(w, r, app, application)
		if !ok {
			return
		}

		errs := validate.Answers(validate.Request{
			Schema:  schema,
			Answers: cert.Answers,
			Common:  application.Answers,
		}, validate.Consignment)

		render.JSON(w, r, model.ValidationReport{Errors: errs})
	}
}

func loadCertificate(w http.ResponseWriter, r *http.Request, app app.App, application model.Application) (model.CertificateInstance, bool) {
	certID := chi.URLParam(r, "certId")

	cert, err := app.Answers.CertificateByID(r.Context(), application.ID, certID)
	if err != nil {
		if errors.Is(err, answers.ErrNotFound) {
			httpx.LogNotFound(w, "get_certificate", certID)
		} else {
			httpx.LogInternalError(w, "db.get_certificate", err)
		}
		return cert, false
	}
	return cert, true
}
