package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/veritrade/exportcert/app"
	"github.com/veritrade/exportcert/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/applications", func(r chi.Router) {
		r.Use(middlewares.Authorized(app.TokenSecret))

		r.Post("/", CreateApplication(app))
		r.Get("/{id}", GetApplication(app))
		r.Get("/{id}/schema", GetSchema(app))
		r.Put("/{id}/answers", SaveApplicationAnswers(app))
		r.Delete(`/{id}/pages/{page:^\d+$}/occurrences/{occurrence:^\d+$}`, DeletePageOccurrence(app))
		r.Post("/{id}/submit", SubmitApplication(app))

		r.Post("/{id}/certificates", AddCertificate(app))
		r.Put("/{id}/certificates/{certId}/answers", SaveCertificateAnswers(app))
		r.Post("/{id}/certificates/{certId}/validate", ValidateCertificate(app))
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Role(app.TokenSecret, "admin"))

		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{name}/{version}", GetForm(app))
		r.Put("/health-certificates/{number}", PutHealthCertificate(app))
		r.Get("/health-certificates/{number}", GetHealthCertificate(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}
