package handlers_test

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ardanlabs/streamledger/app/services/streamd/handlers"
	"github.com/ardanlabs/streamledger/business/web/errs"
	"github.com/ardanlabs/streamledger/foundation/events"
	"github.com/ardanlabs/streamledger/foundation/nameservice"
	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/genesis"
	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
	"github.com/ardanlabs/streamledger/foundation/stream/storage/memory"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	senderID = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	ledgerID = "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8"
)

const T int64 = 1_700_000_000

// StreamTests holds the dependencies for the api tests.
type StreamTests struct {
	app       http.Handler
	now       time.Time
	sender    *ecdsa.PrivateKey
	recipient *ecdsa.PrivateKey
	nonces    map[*ecdsa.PrivateKey]uint64
}

// TestStreams runs a stream through the public api.
func TestStreams(t *testing.T) {
	gen := genesis.Genesis{
		ChainID: 1,
		Ledger:  ledgerID,
		Assets:  map[string]genesis.Asset{"ARD": {Name: "Ardan Dollar", Decimals: 2}},
		Balances: map[string]map[string]uint64{
			senderID: {"ARD": 1000000},
		},
	}

	st, err := state.New(state.Config{Genesis: gen, Serializer: memory.New()})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	ns, err := nameservice.New("../../../../zblock/accounts")
	if err != nil {
		t.Fatalf("Should be able to load the name service: %s", err)
	}

	sender, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the sender key: %s", err)
	}

	recipient, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate the recipient key: %s", err)
	}

	tests := StreamTests{
		now:       time.Unix(T, 0),
		sender:    sender,
		recipient: recipient,
		nonces:    make(map[*ecdsa.PrivateKey]uint64),
	}

	tests.app = handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
		Now:      func() time.Time { return tests.now },
	})

	t.Run("create", tests.create)
	t.Run("createInvalid", tests.createInvalid)
	t.Run("replay", tests.replay)
	t.Run("balance", tests.balance)
	t.Run("withdraw", tests.withdraw)
	t.Run("actionMismatch", tests.actionMismatch)
	t.Run("cancel", tests.cancel)
	t.Run("notFound", tests.notFound)
	t.Run("account", tests.account)
}

// TestPartialSettlement runs a cancel whose refund can't be delivered.
func TestPartialSettlement(t *testing.T) {
	sender, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the sender key: %s", err)
	}

	recipient, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate the recipient key: %s", err)
	}

	payer, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate the payer key: %s", err)
	}

	// The sender ends up holding the largest balance the vault can store,
	// so the refund of a cancel can't be credited.
	gen := genesis.Genesis{
		ChainID: 1,
		Ledger:  ledgerID,
		Assets:  map[string]genesis.Asset{"ARD": {Name: "Ardan Dollar", Decimals: 2}},
		Balances: map[string]map[string]uint64{
			senderID: {"ARD": math.MaxUint64 - 24000},
			string(account.PublicKeyToID(payer.PublicKey)): {"ARD": 360000},
		},
	}

	st, err := state.New(state.Config{Genesis: gen, Serializer: memory.New()})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	ns, err := nameservice.New("../../../../zblock/accounts")
	if err != nil {
		t.Fatalf("Should be able to load the name service: %s", err)
	}

	tests := StreamTests{
		now:       time.Unix(T, 0),
		sender:    sender,
		recipient: recipient,
		nonces:    make(map[*ecdsa.PrivateKey]uint64),
	}

	tests.app = handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
		Now:      func() time.Time { return tests.now },
	})

	t.Log("Given the need to report a cancel that only paid the recipient.")
	{
		if w := tests.call(t, http.MethodPost, "/v1/streams", tests.signedCreateBy(t, sender, recipient, 36000)); w.Code != http.StatusCreated {
			t.Fatalf("\t%s\tShould be able to create the first stream, got %d: %s", failed, w.Code, w.Body.String())
		}
		if w := tests.call(t, http.MethodPost, "/v1/streams", tests.signedCreateBy(t, payer, sender, 360000)); w.Code != http.StatusCreated {
			t.Fatalf("\t%s\tShould be able to create the second stream, got %d: %s", failed, w.Code, w.Body.String())
		}

		tests.now = time.Unix(T+600, 0)

		if w := tests.call(t, http.MethodPost, "/v1/streams/2/withdraw", tests.signedAction(t, sender, request.KindWithdraw, 2, 60000)); w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould be able to withdraw, got %d: %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould fill the balance of the sender.", success)

		w := tests.call(t, http.MethodPost, "/v1/streams/1/cancel", tests.signedAction(t, sender, request.KindCancel, 1, 0))
		if w.Code != http.StatusAccepted {
			t.Fatalf("\t%s\tShould receive a status code of 202 for the response, got %d: %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould receive a status code of 202 for the response.", success)

		var got struct {
			Stream struct {
				Status        ledger.Status `json:"status"`
				PendingSender uint64        `json:"pending_sender"`
			} `json:"stream"`
			Split ledger.Split `json:"split"`
			Error string       `json:"error"`
			Kind  string       `json:"kind"`
		}
		decode(t, w, &got)

		if got.Stream.Status != ledger.StatusSettling || got.Stream.PendingSender != 30000 || got.Split.Recipient != 6000 || got.Split.Sender != 0 {
			t.Fatalf("\t%s\tShould report the delivered and pending legs, got %+v.", failed, got)
		}
		if got.Kind != ledger.KindTransferFailed || got.Error == "" {
			t.Fatalf("\t%s\tShould report the failed leg, got %+v.", failed, got)
		}
		t.Logf("\t%s\tShould report the delivered and pending legs.", success)

		w = tests.call(t, http.MethodPost, "/v1/streams/1/settle", tests.signedAction(t, recipient, request.KindSettle, 1, 0))
		if w.Code != http.StatusPaymentRequired {
			t.Fatalf("\t%s\tShould not settle while the refund fails, got %d: %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould not settle while the refund fails.", success)

		if w := tests.call(t, http.MethodPost, "/v1/streams", tests.signedCreateBy(t, sender, recipient, 36000)); w.Code != http.StatusCreated {
			t.Fatalf("\t%s\tShould be able to create the third stream, got %d: %s", failed, w.Code, w.Body.String())
		}

		w = tests.call(t, http.MethodPost, "/v1/streams/1/settle", tests.signedAction(t, sender, request.KindSettle, 1, 0))
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould settle once the refund fits, got %d: %s", failed, w.Code, w.Body.String())
		}

		got.Kind, got.Error = "", ""
		decode(t, w, &got)

		if got.Stream.Status != ledger.StatusCancelled || got.Split.Sender != 30000 || got.Split.Recipient != 0 || got.Kind != "" {
			t.Fatalf("\t%s\tShould deliver the pending refund, got %+v.", failed, got)
		}
		t.Logf("\t%s\tShould deliver the pending refund.", success)
	}
}

// =============================================================================

func (st *StreamTests) header(pk *ecdsa.PrivateKey) request.Header {
	st.nonces[pk]++
	return request.Header{ChainID: 1, Nonce: st.nonces[pk]}
}

func (st *StreamTests) signedCreate(t *testing.T, deposit uint64) request.Signed[request.Create] {
	now := uint64(st.now.Unix())

	sr, err := request.Sign(request.Create{
		Header:    st.header(st.sender),
		Recipient: account.PublicKeyToID(st.recipient.PublicKey),
		Asset:     "ARD",
		Deposit:   deposit,
		StartTime: now,
		StopTime:  now + 3600,
	}, st.sender)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the create: %v", failed, err)
	}
	return sr
}

func (st *StreamTests) signedCreateBy(t *testing.T, from *ecdsa.PrivateKey, to *ecdsa.PrivateKey, deposit uint64) request.Signed[request.Create] {
	now := uint64(st.now.Unix())

	sr, err := request.Sign(request.Create{
		Header:    st.header(from),
		Recipient: account.PublicKeyToID(to.PublicKey),
		Asset:     "ARD",
		Deposit:   deposit,
		StartTime: now,
		StopTime:  now + 3600,
	}, from)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the create: %v", failed, err)
	}
	return sr
}

func (st *StreamTests) signedAction(t *testing.T, pk *ecdsa.PrivateKey, kind string, id uint64, amount uint64) request.Signed[request.Action] {
	sr, err := request.Sign(request.Action{
		Header:   st.header(pk),
		Kind:     kind,
		StreamID: id,
		Amount:   amount,
	}, pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the action: %v", failed, err)
	}
	return sr
}

func (st *StreamTests) call(t *testing.T, method string, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("\t%s\tShould be able to encode the body: %v", failed, err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	st.app.ServeHTTP(w, r)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, val any) {
	if err := json.NewDecoder(w.Body).Decode(val); err != nil {
		t.Fatalf("\t%s\tShould be able to unmarshal the response: %v", failed, err)
	}
}

// =============================================================================

func (st *StreamTests) create(t *testing.T) {
	t.Log("Given the need to open a stream through the api.")
	{
		w := st.call(t, http.MethodPost, "/v1/streams", st.signedCreate(t, 360000))
		if w.Code != http.StatusCreated {
			t.Fatalf("\t%s\tShould receive a status code of 201 for the response, got %d: %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould receive a status code of 201 for the response.", success)

		var got struct {
			ID             uint64 `json:"id"`
			SenderName     string `json:"sender_name"`
			DepositDisplay string `json:"deposit_display"`
			RatePerSecond  uint64 `json:"rate_per_second"`
		}
		decode(t, w, &got)

		if got.ID != 1 || got.SenderName != "kennedy" || got.DepositDisplay != "3600.00" || got.RatePerSecond != 100 {
			t.Fatalf("\t%s\tShould get back the stream, got %+v.", failed, got)
		}
		t.Logf("\t%s\tShould get back the stream.", success)
	}
}

func (st *StreamTests) createInvalid(t *testing.T) {
	t.Log("Given the need to reject an incomplete create request.")
	{
		body := map[string]any{
			"payload": map[string]any{"chain_id": 1, "nonce": 99},
			"v":       1,
			"r":       1,
			"s":       1,
		}

		w := st.call(t, http.MethodPost, "/v1/streams", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould receive a status code of 400 for the response, got %d.", failed, w.Code)
		}

		var got errs.Response
		decode(t, w, &got)

		if _, exists := got.Fields["recipient"]; !exists || got.Kind != ledger.KindInvalidParameters {
			t.Fatalf("\t%s\tShould report the missing fields, got %+v.", failed, got)
		}
		t.Logf("\t%s\tShould report the missing fields.", success)
	}
}

func (st *StreamTests) replay(t *testing.T) {
	t.Log("Given the need to reject a replayed request.")
	{
		sr := st.signedCreate(t, 360000)

		if w := st.call(t, http.MethodPost, "/v1/streams", sr); w.Code != http.StatusCreated {
			t.Fatalf("\t%s\tShould be able to create the stream, got %d: %s", failed, w.Code, w.Body.String())
		}

		w := st.call(t, http.MethodPost, "/v1/streams", sr)
		if w.Code != http.StatusConflict {
			t.Fatalf("\t%s\tShould receive a status code of 409 for the replay, got %d.", failed, w.Code)
		}

		var got errs.Response
		decode(t, w, &got)

		if got.Kind != errs.KindReplay {
			t.Fatalf("\t%s\tShould report the replay, got %+v.", failed, got)
		}
		t.Logf("\t%s\tShould reject the replayed request.", success)
	}
}

func (st *StreamTests) balance(t *testing.T) {
	t.Log("Given the need to read the accrued balance at the node clock.")
	{
		st.now = time.Unix(T+600, 0)

		w := st.call(t, http.MethodGet, "/v1/streams/1/balance", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a status code of 200 for the response, got %d.", failed, w.Code)
		}

		var got struct {
			Accrued        uint64 `json:"accrued"`
			AccruedDisplay string `json:"accrued_display"`
		}
		decode(t, w, &got)

		if got.Accrued != 60000 || got.AccruedDisplay != "600.00" {
			t.Fatalf("\t%s\tShould accrue 600 seconds of value, got %+v.", failed, got)
		}
		t.Logf("\t%s\tShould accrue 600 seconds of value.", success)
	}
}

func (st *StreamTests) withdraw(t *testing.T) {
	t.Log("Given the need to withdraw through the api.")
	{
		w := st.call(t, http.MethodPost, "/v1/streams/1/withdraw", st.signedAction(t, st.recipient, request.KindWithdraw, 1, 70000))
		if w.Code != http.StatusConflict {
			t.Fatalf("\t%s\tShould not withdraw more than accrued, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould not withdraw more than accrued.", success)

		w = st.call(t, http.MethodPost, "/v1/streams/1/withdraw", st.signedAction(t, st.sender, request.KindWithdraw, 1, 100))
		if w.Code != http.StatusForbidden {
			t.Fatalf("\t%s\tShould not let the sender withdraw, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould not let the sender withdraw.", success)

		w = st.call(t, http.MethodPost, "/v1/streams/1/withdraw", st.signedAction(t, st.recipient, request.KindWithdraw, 1, 60000))
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a status code of 200 for the response, got %d: %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould let the recipient withdraw what accrued.", success)
	}
}

func (st *StreamTests) actionMismatch(t *testing.T) {
	t.Log("Given the need to bind a signed action to its endpoint.")
	{
		w := st.call(t, http.MethodPost, "/v1/streams/1/cancel", st.signedAction(t, st.sender, request.KindWithdraw, 1, 1))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould reject an action for another endpoint, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould reject an action for another endpoint.", success)

		w = st.call(t, http.MethodPost, "/v1/streams/2/cancel", st.signedAction(t, st.sender, request.KindCancel, 1, 0))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould reject an action for another stream, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould reject an action for another stream.", success)
	}
}

func (st *StreamTests) cancel(t *testing.T) {
	t.Log("Given the need to cancel through the api.")
	{
		st.now = time.Unix(T+900, 0)

		w := st.call(t, http.MethodPost, "/v1/streams/1/cancel", st.signedAction(t, st.sender, request.KindCancel, 1, 0))
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a status code of 200 for the response, got %d: %s", failed, w.Code, w.Body.String())
		}

		var got struct {
			Stream struct {
				Status ledger.Status `json:"status"`
			} `json:"stream"`
			Split ledger.Split `json:"split"`
		}
		decode(t, w, &got)

		if got.Stream.Status != ledger.StatusCancelled || got.Split.Recipient != 30000 || got.Split.Sender != 270000 {
			t.Fatalf("\t%s\tShould split the remaining deposit, got %+v.", failed, got)
		}
		t.Logf("\t%s\tShould split the remaining deposit.", success)

		w = st.call(t, http.MethodGet, "/v1/streams/1/balance", nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("\t%s\tShould report the stream inactive, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould report the stream inactive.", success)
	}
}

func (st *StreamTests) notFound(t *testing.T) {
	t.Log("Given the need to report unknown streams.")
	{
		w := st.call(t, http.MethodGet, "/v1/streams/99", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("\t%s\tShould receive a status code of 404 for the response, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould receive a status code of 404 for the response.", success)

		w = st.call(t, http.MethodGet, "/v1/streams/abc", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould receive a status code of 400 for a bad id, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould receive a status code of 400 for a bad id.", success)
	}
}

func (st *StreamTests) account(t *testing.T) {
	t.Log("Given the need to read the balances of an account.")
	{
		w := st.call(t, http.MethodGet, fmt.Sprintf("/v1/accounts/%s", senderID), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a status code of 200 for the response, got %d.", failed, w.Code)
		}

		var got struct {
			Name     string `json:"name"`
			Nonce    uint64 `json:"nonce"`
			Balances []struct {
				Asset  string `json:"asset"`
				Amount uint64 `json:"amount"`
			} `json:"balances"`
		}
		decode(t, w, &got)

		// 1000000 - 360000 - 360000 + 270000
		if got.Name != "kennedy" || got.Nonce != st.nonces[st.sender] || len(got.Balances) != 1 || got.Balances[0].Amount != 550000 {
			t.Fatalf("\t%s\tShould get back the account, got %+v.", failed, got)
		}
		t.Logf("\t%s\tShould get back the account.", success)

		w = st.call(t, http.MethodGet, "/v1/streams/account/"+senderID, nil)

		var streams []struct {
			ID uint64 `json:"id"`
		}
		decode(t, w, &streams)

		if len(streams) != 2 {
			t.Fatalf("\t%s\tShould list the streams of the account, got %d.", failed, len(streams))
		}
		t.Logf("\t%s\tShould list the streams of the account.", success)
	}
}
