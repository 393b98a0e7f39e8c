package ledger

import (
	"cmp"
	"slices"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
)

// Stream returns a copy of the specified stream in any status.
func (l *Ledger) Stream(id uint64) (Stream, error) {
	rec, err := l.record(id)
	if err != nil {
		return Stream{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.stream, nil
}

// Streams returns a copy of the streams the specified account is a party
// to, ordered by id. An empty account returns every stream.
func (l *Ledger) Streams(acct account.ID) []Stream {
	l.mu.RLock()
	recs := make([]*record, 0, len(l.streams))
	for _, rec := range l.streams {
		recs = append(recs, rec)
	}
	l.mu.RUnlock()

	streams := make([]Stream, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		stream := rec.stream
		rec.mu.Unlock()

		if acct != "" && !stream.IsParty(acct) {
			continue
		}
		streams = append(streams, stream)
	}

	slices.SortFunc(streams, func(a, b Stream) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return streams
}

// Custody returns a copy of the aggregate value held per asset.
func (l *Ledger) Custody() map[string]uint64 {
	l.custodyMu.Lock()
	defer l.custodyMu.Unlock()

	custody := make(map[string]uint64, len(l.custody))
	for asset, amount := range l.custody {
		custody[asset] = amount
	}
	return custody
}
