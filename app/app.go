package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/surveyard/surveyard/config"
	"github.com/surveyard/surveyard/survey"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Surveys *survey.Service
}
