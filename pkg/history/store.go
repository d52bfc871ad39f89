package history

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

// PrefixRun namespaces run records; keys sort by time.
const PrefixRun = "run:"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Run is one recorded write run.
type Run struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"` // Nanoseconds
	Outcome   string `json:"outcome"`
	Bytes     int64  `json:"bytes"`
	Values    int    `json:"values"`
	CID       string `json:"cid,omitempty"`
	Root      string `json:"root,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Time returns the run's timestamp.
func (r Run) Time() time.Time {
	return time.Unix(0, r.Timestamp)
}

// Store keeps run records in Pebble.
type Store struct {
	db *pebble.DB
}

// Open opens or creates a store under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create state dir %s", dir)
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble at %s", dir)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a run, assigning an ID and timestamp when unset.
func (s *Store) Record(run Run) (Run, error) {
	if s == nil || s.db == nil {
		return run, errors.New("history store is not initialized")
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp == 0 {
		run.Timestamp = time.Now().UnixNano()
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return run, errors.Wrap(err, "marshal run")
	}

	if err := s.db.Set(runKey(run), payload, pebble.Sync); err != nil {
		return run, errors.Wrap(err, "write run")
	}
	return run, nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) List(limit int) ([]Run, error) {
	var runs []Run
	err := s.scanNewestFirst(func(run Run) bool {
		runs = append(runs, run)
		return limit <= 0 || len(runs) < limit
	})
	return runs, err
}

// LastSuccess returns the most recent successful run.
func (s *Store) LastSuccess() (Run, bool, error) {
	var (
		found Run
		ok    bool
	)
	err := s.scanNewestFirst(func(run Run) bool {
		if run.Outcome == OutcomeSuccess {
			found, ok = run, true
			return false
		}
		return true
	})
	return found, ok, err
}

// Count returns the number of recorded runs.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.scanNewestFirst(func(Run) bool {
		n++
		return true
	})
	return n, err
}

// scanNewestFirst walks run records from newest to oldest until fn returns false.
func (s *Store) scanNewestFirst(fn func(Run) bool) error {
	if s == nil || s.db == nil {
		return errors.New("history store is not initialized")
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(PrefixRun),
		UpperBound: append([]byte(PrefixRun), 0xff),
	})
	if err != nil {
		return errors.Wrap(err, "open run iterator")
	}
	defer iter.Close()

	for iter.Last(); iter.Valid(); iter.Prev() {
		var run Run
		if err := json.Unmarshal(iter.Value(), &run); err != nil {
			return errors.Wrapf(err, "decode run %s", iter.Key())
		}
		if !fn(run) {
			break
		}
	}
	return iter.Error()
}

func runKey(run Run) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", PrefixRun, run.Timestamp, run.ID))
}
