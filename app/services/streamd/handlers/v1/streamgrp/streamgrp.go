// Package streamgrp maintains the group of handlers for stream access.
package streamgrp

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/ardanlabs/streamledger/business/web/errs"
	"github.com/ardanlabs/streamledger/foundation/events"
	"github.com/ardanlabs/streamledger/foundation/nameservice"
	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
	"github.com/ardanlabs/streamledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of stream endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
	WS    websocket.Upgrader
	Now   func() time.Time
}

// Create verifies a signed create request and opens the stream.
func (h Handlers) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var sr request.Signed[request.Create]
	if err := web.Decode(r, &sr); err != nil {
		return errs.NewTrusted(fmt.Errorf("%w: %w", ledger.ErrInvalidParameters, err), http.StatusBadRequest)
	}

	now := h.unixNow()

	h.Log.Infow("create stream", "traceid", v.TraceID, "recipient", sr.Payload.Recipient, "asset", sr.Payload.Asset,
		"deposit", sr.Payload.Deposit, "start", sr.Payload.StartTime, "stop", sr.Payload.StopTime, "now", now)

	stream, err := h.State.SubmitCreate(ctx, sr, now)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, h.toStream(stream), http.StatusCreated)
}

// Action returns a handler that verifies a signed action of the specified
// kind and applies it to the stream named in the path.
func (h Handlers) Action(kind string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil {
			return web.NewShutdownError("web value missing from context")
		}

		id, err := streamID(r)
		if err != nil {
			return err
		}

		var sr request.Signed[request.Action]
		if err := web.Decode(r, &sr); err != nil {
			return errs.NewTrusted(fmt.Errorf("%w: %w", ledger.ErrInvalidParameters, err), http.StatusBadRequest)
		}

		switch {
		case sr.Payload.Kind != kind:
			err := fmt.Errorf("%w: request is for %q, endpoint is %q", ledger.ErrInvalidParameters, sr.Payload.Kind, kind)
			return errs.NewTrusted(err, http.StatusBadRequest)

		case sr.Payload.StreamID != id:
			err := fmt.Errorf("%w: request is for stream %d, path is %d", ledger.ErrInvalidParameters, sr.Payload.StreamID, id)
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

		now := h.unixNow()

		h.Log.Infow("stream action", "traceid", v.TraceID, "kind", kind, "id", id, "amount", sr.Payload.Amount, "now", now)

		res, err := h.State.SubmitAction(ctx, sr, now)
		if err != nil && res.Split == nil {
			return errs.FromLedger(err)
		}

		resp := actionResult{
			Stream: h.toStream(res.Stream),
			Split:  res.Split,
		}

		// Part of the split was delivered and the stream is settling. The
		// pending legs are on the stream and settle delivers them.
		if err != nil {
			h.Log.Infow("stream action pending", "traceid", v.TraceID, "kind", kind, "id", id, "ERROR", err)

			resp.Error = err.Error()
			resp.Kind = ledger.Kind(err)
			return web.Respond(ctx, w, resp, http.StatusAccepted)
		}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

// Stream returns the specified stream.
func (h Handlers) Stream(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := streamID(r)
	if err != nil {
		return err
	}

	stream, err := h.State.RetrieveStream(id)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, h.toStream(stream), http.StatusOK)
}

// Streams returns every stream or the streams the account is a party to.
func (h Handlers) Streams(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var acct account.ID

	if param := web.Param(r, "account"); param != "" {
		id, err := account.ToID(param)
		if err != nil {
			return errs.NewTrusted(fmt.Errorf("%w: account %q: %w", ledger.ErrInvalidParameters, param, err), http.StatusBadRequest)
		}
		acct = id
	}

	streams := h.State.RetrieveStreams(acct)

	resp := make([]stream, len(streams))
	for i, s := range streams {
		resp[i] = h.toStream(s)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns what the stream has accrued at the node clock.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := streamID(r)
	if err != nil {
		return err
	}

	bal, err := h.State.RetrieveBalance(id, h.unixNow())
	if err != nil {
		return errs.FromLedger(err)
	}

	stream, err := h.State.RetrieveStream(id)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, h.toBalance(stream, bal), http.StatusOK)
}

// Custody returns the aggregate value the ledger holds per asset.
func (h Handlers) Custody(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Account  account.ID `json:"account"`
		Holdings []holding  `json:"holdings"`
	}{
		Account:  h.State.RetrieveLedgerAccount(),
		Holdings: h.toHoldings(h.State.RetrieveCustody()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Account returns the vault balances and last nonce for the account.
func (h Handlers) Account(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	param := web.Param(r, "account")

	acct, err := account.ToID(param)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("%w: account %q: %w", ledger.ErrInvalidParameters, param, err), http.StatusBadRequest)
	}

	resp := accountInfo{
		Account:  acct,
		Name:     h.NS.Lookup(acct),
		Nonce:    h.State.RetrieveNonce(acct),
		Balances: h.toHoldings(h.State.RetrieveBalances(acct)),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Events handles a web socket to provide stream changes to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// unixNow reads the node clock once for the request.
func (h Handlers) unixNow() uint64 {
	now := h.Now().Unix()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// streamID parses the stream id from the path.
func streamID(r *http.Request) (uint64, error) {
	param := web.Param(r, "id")

	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		err := fmt.Errorf("%w: stream id %q", ledger.ErrInvalidParameters, param)
		return 0, errs.NewTrusted(err, http.StatusBadRequest)
	}

	return id, nil
}

// sortHoldings orders the holdings by asset symbol.
func sortHoldings(holdings []holding) {
	slices.SortFunc(holdings, func(a, b holding) int {
		return cmp.Compare(a.Asset, b.Asset)
	})
}
