// Package receipts is a small Badger-backed store of operation outcomes
// keyed by client request id. A resubmitted request replays the recorded
// response instead of re-executing the operation.
package receipts

import (
	"encoding/json"
	"errors"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

type Store struct {
	db *badger.DB
}

type Receipt struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("receipts: path is required")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(requestID string) (*Receipt, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("receipts: not opened")
	}
	key := []byte(strings.TrimSpace(requestID))
	if len(key) == 0 {
		return nil, false, errors.New("receipts: request id is empty")
	}
	var out *Receipt
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var r Receipt
			if err := json.Unmarshal(val, &r); err != nil {
				return err
			}
			out = &r
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *Store) Put(requestID string, r Receipt) error {
	if s == nil || s.db == nil {
		return errors.New("receipts: not opened")
	}
	key := []byte(strings.TrimSpace(requestID))
	if len(key) == 0 {
		return errors.New("receipts: request id is empty")
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, raw)
	})
}
