package streamgrp

import (
	"math/big"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/genesis"
	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
	"github.com/shopspring/decimal"
)

type stream struct {
	ID               uint64        `json:"id"`
	Sender           account.ID    `json:"sender"`
	SenderName       string        `json:"sender_name"`
	Recipient        account.ID    `json:"recipient"`
	RecipientName    string        `json:"recipient_name"`
	Asset            string        `json:"asset"`
	Deposit          uint64        `json:"deposit"`
	DepositDisplay   string        `json:"deposit_display"`
	StartTime        uint64        `json:"start_time"`
	StopTime         uint64        `json:"stop_time"`
	RatePerSecond    uint64        `json:"rate_per_second"`
	Withdrawn        uint64        `json:"withdrawn"`
	WithdrawnDisplay string        `json:"withdrawn_display"`
	Status           ledger.Status `json:"status"`
	CancelledAt      uint64        `json:"cancelled_at,omitempty"`
	PendingRecipient uint64        `json:"pending_recipient,omitempty"`
	PendingSender    uint64        `json:"pending_sender,omitempty"`
	Refunded         uint64        `json:"refunded,omitempty"`
}

type balance struct {
	StreamID            uint64 `json:"stream_id"`
	Asset               string `json:"asset"`
	Time                uint64 `json:"time"`
	Accrued             uint64 `json:"accrued"`
	AccruedDisplay      string `json:"accrued_display"`
	Withdrawn           uint64 `json:"withdrawn"`
	Withdrawable        uint64 `json:"withdrawable"`
	WithdrawableDisplay string `json:"withdrawable_display"`
}

type actionResult struct {
	Stream stream        `json:"stream"`
	Split  *ledger.Split `json:"split,omitempty"`
	Error  string        `json:"error,omitempty"`
	Kind   string        `json:"kind,omitempty"`
}

type holding struct {
	Asset   string `json:"asset"`
	Amount  uint64 `json:"amount"`
	Display string `json:"display"`
}

type accountInfo struct {
	Account  account.ID `json:"account"`
	Name     string     `json:"name"`
	Nonce    uint64     `json:"nonce"`
	Balances []holding  `json:"balances"`
}

// =============================================================================

func (h Handlers) toStream(s ledger.Stream) stream {
	asset, _ := h.State.RetrieveAsset(s.Asset)

	return stream{
		ID:               s.ID,
		Sender:           s.Sender,
		SenderName:       h.NS.Lookup(s.Sender),
		Recipient:        s.Recipient,
		RecipientName:    h.NS.Lookup(s.Recipient),
		Asset:            s.Asset,
		Deposit:          s.Deposit,
		DepositDisplay:   display(s.Deposit, asset),
		StartTime:        s.StartTime,
		StopTime:         s.StopTime,
		RatePerSecond:    s.RatePerSecond,
		Withdrawn:        s.Withdrawn,
		WithdrawnDisplay: display(s.Withdrawn, asset),
		Status:           s.Status,
		CancelledAt:      s.CancelledAt,
		PendingRecipient: s.PendingRecipient,
		PendingSender:    s.PendingSender,
		Refunded:         s.Refunded,
	}
}

func (h Handlers) toBalance(s ledger.Stream, b state.Balance) balance {
	asset, _ := h.State.RetrieveAsset(s.Asset)

	return balance{
		StreamID:            b.StreamID,
		Asset:               s.Asset,
		Time:                b.Time,
		Accrued:             b.Accrued,
		AccruedDisplay:      display(b.Accrued, asset),
		Withdrawn:           b.Withdrawn,
		Withdrawable:        b.Withdrawable,
		WithdrawableDisplay: display(b.Withdrawable, asset),
	}
}

func (h Handlers) toHoldings(amounts map[string]uint64) []holding {
	holdings := make([]holding, 0, len(amounts))
	for symbol, amount := range amounts {
		asset, _ := h.State.RetrieveAsset(symbol)
		holdings = append(holdings, holding{
			Asset:   symbol,
			Amount:  amount,
			Display: display(amount, asset),
		})
	}

	sortHoldings(holdings)
	return holdings
}

// display renders an amount in base units using the decimals of the asset.
func display(amount uint64, asset genesis.Asset) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -asset.Decimals)
	return d.StringFixed(asset.Decimals)
}
