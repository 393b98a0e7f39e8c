// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"
	"time"

	"github.com/ardanlabs/streamledger/app/services/streamd/handlers/v1/streamgrp"
	"github.com/ardanlabs/streamledger/foundation/events"
	"github.com/ardanlabs/streamledger/foundation/nameservice"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
	"github.com/ardanlabs/streamledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
	Now   func() time.Time
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	sgh := streamgrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
		Now:   now,
	}

	app.Handle(http.MethodGet, version, "/genesis", sgh.Genesis)
	app.Handle(http.MethodGet, version, "/events", sgh.Events)
	app.Handle(http.MethodGet, version, "/custody", sgh.Custody)
	app.Handle(http.MethodGet, version, "/accounts/:account", sgh.Account)
	app.Handle(http.MethodGet, version, "/streams", sgh.Streams)
	app.Handle(http.MethodGet, version, "/streams/account/:account", sgh.Streams)
	app.Handle(http.MethodPost, version, "/streams", sgh.Create)
	app.Handle(http.MethodGet, version, "/streams/:id", sgh.Stream)
	app.Handle(http.MethodGet, version, "/streams/:id/balance", sgh.Balance)
	app.Handle(http.MethodPost, version, "/streams/:id/withdraw", sgh.Action(request.KindWithdraw))
	app.Handle(http.MethodPost, version, "/streams/:id/cancel", sgh.Action(request.KindCancel))
	app.Handle(http.MethodPost, version, "/streams/:id/settle", sgh.Action(request.KindSettle))
}
