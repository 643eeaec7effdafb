package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/veritrade/exportcert/answers"
	"github.com/veritrade/exportcert/app"
	"github.com/veritrade/exportcert/catalog"
	"github.com/veritrade/exportcert/compose"
	"github.com/veritrade/exportcert/httpx"
	"github.com/veritrade/exportcert/log"
	"github.com/veritrade/exportcert/model"
	"github.com/veritrade/exportcert/pages"
	"github.com/veritrade/exportcert/reconcile"
	"github.com/veritrade/exportcert/routes/middlewares"
	"github.com/veritrade/exportcert/scope"
	"github.com/veritrade/exportcert/validate"
)

func CreateApplication(app app.App) http.HandlerFunc {
	type request struct {
		CertificateNumber string `json:"certificateNumber"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil || req.CertificateNumber == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		_, err = app.Catalog.HealthCertificateByNumber(r.Context(), req.CertificateNumber)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				httpx.LogNotFound(w, "get_health_certificate", req.CertificateNumber)
			} else {
				httpx.LogInternalError(w, "db.get_health_certificate", err)
			}
			return
		}

		application, err := app.Answers.CreateApplication(r.Context(), req.CertificateNumber)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_application", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, application)
	}
}

func GetApplication(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		application, ok := loadApplication(w, r, app)
		if !ok {
			return
		}
		render.JSON(w, r, application)
	}
}

// GetSchema composes the page schema for the application's certificate
// kind, filtered down to what the requester's roles may see. Nothing about
// the result is cached: the published form versions backing it may change
// between requests.
func GetSchema(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		application, ok := loadApplication(w, r, app)
		if !ok {
			return
		}

		schema, ok := composeSchema(w, r, app, application)
		if !ok {
			return
		}
		render.JSON(w, r, schema)
	}
}

func SaveApplicationAnswers(app app.App) http.HandlerFunc {
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

		schema, ok := composeSchema(w, r, app, application)
		if !ok {
			return
		}

		errs := validate.Answers(validate.Request{Schema: schema, Answers: req.Answers}, validate.Partial)
		if len(errs) > 0 {
			renderReport(w, r, model.ValidationReport{Errors: errs})
			return
		}

		merged, err := app.Answers.ReplaceAnswers(r.Context(), application.ID, func(existing []model.Answer) []model.Answer {
			return reconcile.Merge(existing, req.Answers)
		})
		if err != nil {
			httpx.LogInternalError(w, "db.save_answers", err)
			return
		}

		render.JSON(w, r, map[string]any{"answers": merged})
	}
}

func DeletePageOccurrence(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// pages and occurrences are both 1-based
		page, err := strconv.Atoi(chi.URLParam(r, "page"))
		if err != nil || page < 1 {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.page")
			return
		}
		occurrence, err := strconv.Atoi(chi.URLParam(r, "occurrence"))
		if err != nil || occurrence < 1 {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.occurrence")
			return
		}

		application, ok := loadWritableApplication(w, r, app)
		if !ok {
			return
		}

		remaining, err := app.Answers.ReplaceAnswers(r.Context(), application.ID, func(existing []model.Answer) []model.Answer {
			return reconcile.DeleteOccurrence(existing, page, occurrence)
		})
		if err != nil {
			httpx.LogInternalError(w, "db.save_answers", err)
			return
		}

		render.JSON(w, r, map[string]any{"answers": remaining})
	}
}

// SubmitApplication runs Complete validation, including the aggregate
// multi-certificate rules. A non-empty report means unprocessable input,
// not a fault: it is rendered back with a 422.
func SubmitApplication(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		application, ok := loadWritableApplication(w, r, app)
		if !ok {
			return
		}

		hc, ok := loadHealthCertificate(w, r, app, application)
		if !ok {
			return
		}

		schema, ok := composeSchema(w, r, app, application)
		if !ok {
			return
		}

		report := validate.Application(schema, application, hc)
		if !report.Empty() {
			renderReport(w, r, report)
			return
		}

		err := app.Answers.UpdateStatus(r.Context(), application.ID, model.StatusSubmitted)
		if err != nil {
			httpx.LogInternalError(w, "db.update_status", err)
			return
		}

		application.Status = model.StatusSubmitted
		render.JSON(w, r, application)
	}
}

func loadApplication(w http.ResponseWriter, r *http.Request, app app.App) (model.Application, bool) {
	id := chi.URLParam(r, "id")

	application, err := app.Answers.ApplicationByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, answers.ErrNotFound) {
			httpx.LogNotFound(w, "get_application", id)
		} else {
			httpx.LogInternalError(w, "db.get_application", err)
		}
		return application, false
	}
	return application, true
}

// loadWritableApplication additionally enforces the workflow precondition
// the reconciler itself is oblivious to: no writes to a submitted or
// closed application.
func loadWritableApplication(w http.ResponseWriter, r *http.Request, app app.App) (model.Application, bool) {
	application, ok := loadApplication(w, r, app)
	if !ok {
		return application, false
	}
	if !application.Writable() {
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "application.not_writable",
			"application %s is %s", application.ID, application.Status)
		return application, false
	}
	return application, true
}

func loadHealthCertificate(w http.ResponseWriter, r *http.Request, app app.App, application model.Application) (model.HealthCertificate, bool) {
	hc, err := app.Catalog.HealthCertificateByNumber(r.Context(), application.CertificateNumber)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.LogNotFound(w, "get_health_certificate", application.CertificateNumber)
		} else {
			httpx.LogInternalError(w, "db.get_health_certificate", err)
		}
		return hc, false
	}
	if hc.Multiple && hc.MaxCertificates < 1 {
		hc.MaxCertificates = app.MaxCertificates
	}
	return hc, true
}

func composeSchema(w http.ResponseWriter, r *http.Request, app app.App, application model.Application) (model.ComposedSchema, bool) {
	hc, ok := loadHealthCertificate(w, r, app, application)
	if !ok {
		return model.ComposedSchema{}, false
	}

	primary := model.NameVersion{Name: hc.FormName, Version: hc.FormVersion}
	var secondary *model.NameVersion
	if name, version, ok := app.Authority(); ok {
		secondary = &model.NameVersion{Name: name, Version: version}
	}

	schema, err := compose.Schema(
		r.Context(),
		app.Catalog,
		primary,
		secondary,
		scope.FromRoles(middlewares.Roles(r)),
		[]model.ComposedPage{pages.SupportingDocuments()},
	)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.LogNotFound(w, "compose_schema", application.CertificateNumber)
		} else {
			httpx.LogInternalError(w, "compose_schema", err)
		}
		return schema, false
	}
	return schema, true
}

func renderReport(w http.ResponseWriter, r *http.Request, report model.ValidationReport) {
	w.WriteHeader(http.StatusUnprocessableEntity)
	render.JSON(w, r, report)
}
