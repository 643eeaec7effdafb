package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/veritrade/exportcert/answers"
	"github.com/veritrade/exportcert/catalog"
	"github.com/veritrade/exportcert/config"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Catalog *catalog.Store
	Answers *answers.Store
}

func New(db *sql.DB, bearerServer *oauth.BearerServer, cfg config.Config) App {
	return App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Catalog:      catalog.NewStore(db),
		Answers:      answers.NewStore(db),
	}
}
