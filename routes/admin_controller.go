package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/veritrade/exportcert/app"
	"github.com/veritrade/exportcert/catalog"
	"github.com/veritrade/exportcert/httpx"
	"github.com/veritrade/exportcert/log"
	"github.com/veritrade/exportcert/model"
)

// CreateForm publishes one form definition version. Published versions are
// immutable: resubmitting an existing (name, version) fails.
func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.FormDefinition{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if form.Name == "" || form.Version == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "form.identity",
				"a form needs both a name and a version")
			return
		}

		err = app.Catalog.SaveForm(r.Context(), form)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, model.NameVersion{Name: form.Name, Version: form.Version})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, err := app.Catalog.ListForms(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{"forms": refs})
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		version := chi.URLParam(r, "version")

		form, err := app.Catalog.FormByNameVersion(r.Context(), name, version)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				httpx.LogNotFound(w, "get_form", name+"/"+version)
			} else {
				httpx.LogInternalError(w, "db.get_form", err)
			}
			return
		}

		render.JSON(w, r, form)
	}
}

func PutHealthCertificate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hc := model.HealthCertificate{}
		err := render.DecodeJSON(r.Body, &hc)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		hc.Number = chi.URLParam(r, "number")
		if hc.FormName == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "health_certificate.form",
				"a health certificate needs a primary form name (version may be %s)", model.OfflineVersion)
			return
		}

		err = app.Catalog.SaveHealthCertificate(r.Context(), hc)
		if err != nil {
			httpx.LogInternalError(w, "db.save_health_certificate", err)
			return
		}

		render.JSON(w, r, hc)
	}
}

func GetHealthCertificate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "number")

		hc, err := app.Catalog.HealthCertificateByNumber(r.Context(), number)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				httpx.LogNotFound(w, "get_health_certificate", number)
			} else {
				httpx.LogInternalError(w, "db.get_health_certificate", err)
			}
			return
		}

		render.JSON(w, r, hc)
	}
}
