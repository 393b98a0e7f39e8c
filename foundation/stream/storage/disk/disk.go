// Package disk implements the ability to read and write stream records to
// disk, one file per stream.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
)

// Disk represents the serialization implementation for reading and storing
// streams in their own separate files on disk. This implements the
// ledger.Serializer interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use, creating the folder if needed.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a file is written
// for each update and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write stores the stream in a file labeled with the stream id. The file is
// replaced atomically so a crash never leaves a partial record behind.
func (d *Disk) Write(stream ledger.Stream) error {
	if stream.ID == 0 {
		return errors.New("stream id is required")
	}

	// Marshal the stream for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(stream, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dbPath, "stream-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), d.getPath(stream.ID))
}

// GetStream reads the stream with the specified id from disk.
func (d *Disk) GetStream(id uint64) (ledger.Stream, error) {
	f, err := os.Open(d.getPath(id))
	if err != nil {
		return ledger.Stream{}, err
	}
	defer f.Close()

	var stream ledger.Stream
	if err := json.NewDecoder(f).Decode(&stream); err != nil {
		return ledger.Stream{}, fmt.Errorf("decoding stream %d: %w", id, err)
	}

	return stream, nil
}

// ForEach returns an iterator to walk through all the streams on disk
// ordered by stream id.
func (d *Disk) ForEach() ledger.Iterator {
	ids, err := d.ids()
	return &DiskIterator{disk: d, ids: ids, err: err}
}

// getPath forms the path to the specified stream.
func (d *Disk) getPath(id uint64) string {
	name := strconv.FormatUint(id, 10)
	return filepath.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// ids returns the sorted set of stream ids found on disk.
func (d *Disk) ids() ([]uint64, error) {
	entries, err := os.ReadDir(d.dbPath)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}

		id, err := strconv.ParseUint(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids, nil
}

// =============================================================================

// DiskIterator represents the iteration implementation for walking
// through and reading streams on disk. This implements the ledger
// Iterator interface.
type DiskIterator struct {
	disk    *Disk    // Access to the disk storage API.
	ids     []uint64 // Stream ids found when the iterator was created.
	current int      // Index of the next stream id to read.
	err     error    // Error listing the folder, reported on first Next.
	eoc     bool     // Represents the iterator is at the end of the streams.
}

// Next retrieves the next stream from disk.
func (di *DiskIterator) Next() (ledger.Stream, error) {
	if di.err != nil {
		err := di.err
		di.err = nil
		return ledger.Stream{}, err
	}

	if di.current >= len(di.ids) {
		di.eoc = true
		return ledger.Stream{}, errors.New("end of streams")
	}

	id := di.ids[di.current]
	di.current++

	return di.disk.GetStream(id)
}

// Done returns the end of streams value.
func (di *DiskIterator) Done() bool {
	return di.eoc
}
