package state

import (
	"fmt"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/genesis"
	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
)

// Balance represents what a stream owes its recipient at a point in time.
type Balance struct {
	StreamID     uint64 `json:"stream_id"`
	Time         uint64 `json:"time"`
	Accrued      uint64 `json:"accrued"`
	Withdrawn    uint64 `json:"withdrawn"`
	Withdrawable uint64 `json:"withdrawable"`
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveAsset returns the information for the specified asset.
func (s *State) RetrieveAsset(symbol string) (genesis.Asset, bool) {
	return s.vault.Asset(symbol)
}

// RetrieveLedgerAccount returns the account holding custody for the streams.
func (s *State) RetrieveLedgerAccount() account.ID {
	return s.ledger.Account()
}

// RetrieveStream returns a copy of the specified stream.
func (s *State) RetrieveStream(id uint64) (ledger.Stream, error) {
	return s.ledger.Stream(id)
}

// RetrieveStreams returns the streams the account is a party to. An empty
// account returns every stream.
func (s *State) RetrieveStreams(acct account.ID) []ledger.Stream {
	return s.ledger.Streams(acct)
}

// RetrieveBalance returns the accrued and withdrawable amounts of an active
// stream at the specified time.
func (s *State) RetrieveBalance(id uint64, now uint64) (Balance, error) {
	accrued, err := s.ledger.AccruedBalance(id, now)
	if err != nil {
		return Balance{}, err
	}

	stream, err := s.ledger.Stream(id)
	if err != nil {
		return Balance{}, err
	}

	if !stream.Active() {
		return Balance{}, fmt.Errorf("%w: stream %d is %s", ledger.ErrInactive, id, stream.Status)
	}

	withdrawable := uint64(0)
	if accrued > stream.Withdrawn {
		withdrawable = accrued - stream.Withdrawn
	}

	b := Balance{
		StreamID:     id,
		Time:         now,
		Accrued:      accrued,
		Withdrawn:    stream.Withdrawn,
		Withdrawable: withdrawable,
	}

	return b, nil
}

// RetrieveCustody returns the aggregate value held per asset.
func (s *State) RetrieveCustody() map[string]uint64 {
	return s.ledger.Custody()
}

// RetrieveBalances returns the vault balances of the account.
func (s *State) RetrieveBalances(acct account.ID) map[string]uint64 {
	return s.vault.Balances(acct)
}

// RetrieveNonce returns the last nonce accepted for the account.
func (s *State) RetrieveNonce(acct account.ID) uint64 {
	return s.verifier.Nonces().Last(normalize(acct))
}
