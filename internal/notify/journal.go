package notify

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	. "ringbook/internal/common"

	"github.com/cockroachdb/pebble"
)

var (
	ErrNotFound      = errors.New("notification not found")
	ErrInvalidRecord = errors.New("invalid journal record")
)

const (
	journalPrefix = "notification/"
	// [side:1][type:1][executed:8][unexecuted:8][avgPrice:8][at:8]
	journalRecordLen = 1 + 1 + 8 + 8 + 8 + 8
)

// Journal is a Sink that records terminal notifications in Pebble, one key per
// order id. It keeps outcomes for later inspection; it is not a copy of the
// book and cannot rebuild one.
type Journal struct {
	db *pebble.DB
}

func OpenJournal(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", dir, err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Publish writes the batch atomically and syncs it.
func (j *Journal) Publish(_ context.Context, batch []Notification) error {
	b := j.db.NewBatch()
	defer b.Close()
	for _, n := range batch {
		if err := b.Set(journalKey(n.ID), encodeRecord(n), nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// Get returns the notification recorded for id.
func (j *Journal) Get(id int64) (Notification, error) {
	val, closer, err := j.db.Get(journalKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Notification{}, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	if err != nil {
		return Notification{}, err
	}
	defer closer.Close()

	return decodeRecord(id, val)
}

// Scan visits every recorded notification in ascending id order until fn
// fails.
func (j *Journal) Scan(fn func(Notification) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(journalPrefix),
		UpperBound: []byte(journalPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := parseJournalKey(iter.Key())
		if err != nil {
			return err
		}
		n, err := decodeRecord(id, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(n); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Keys hold the id with its sign bit flipped, zero padded, so that the
// lexical key order is the signed id order.
const journalKeyBias = 1 << 63

func journalKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", journalPrefix, uint64(id)^journalKeyBias))
}

func parseJournalKey(key []byte) (int64, error) {
	var biased uint64
	if _, err := fmt.Sscanf(string(bytes.TrimPrefix(key, []byte(journalPrefix))), "%d", &biased); err != nil {
		return 0, fmt.Errorf("%w: key %q: %w", ErrInvalidRecord, key, err)
	}
	return int64(biased ^ journalKeyBias), nil
}

func encodeRecord(n Notification) []byte {
	buf := make([]byte, journalRecordLen)
	buf[0] = byte(n.Side)
	buf[1] = byte(n.Type)
	binary.BigEndian.PutUint64(buf[2:10], uint64(n.Executed))
	binary.BigEndian.PutUint64(buf[10:18], uint64(n.Unexecuted))
	binary.BigEndian.PutUint64(buf[18:26], math.Float64bits(n.AvgPrice))
	binary.BigEndian.PutUint64(buf[26:34], uint64(n.At.UnixNano()))
	return buf
}

func decodeRecord(id int64, b []byte) (Notification, error) {
	if len(b) != journalRecordLen {
		return Notification{}, fmt.Errorf("%w: order %d: length %d", ErrInvalidRecord, id, len(b))
	}
	return Notification{
		ID:         id,
		Side:       Side(b[0]),
		Type:       OrderType(b[1]),
		Executed:   int64(binary.BigEndian.Uint64(b[2:10])),
		Unexecuted: int64(binary.BigEndian.Uint64(b[10:18])),
		AvgPrice:   math.Float64frombits(binary.BigEndian.Uint64(b[18:26])),
		At:         time.Unix(0, int64(binary.BigEndian.Uint64(b[26:34]))),
	}, nil
}
