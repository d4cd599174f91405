// Package bolt is a Storage backed by a bbolt file: one bucket per
// module, one key per predicate.
package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Comcast/sweep/storage"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

type Storage struct {
	Logger   *zap.Logger
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		Logger:   zap.NewNop(),
		filename: filename,
	}, nil
}

func (s *Storage) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) MakeModule(ctx context.Context, module string) error {
	s.Logger.Debug("MakeModule", zap.String("module", module))
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(module))
		return err
	})
}

func (s *Storage) RemModule(ctx context.Context, module string) error {
	s.Logger.Debug("RemModule", zap.String("module", module))
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(module))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

func (s *Storage) GetClauses(ctx context.Context, module string) ([]*storage.PredicateState, error) {
	pss := make([]*storage.PredicateState, 0, 8)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(module))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, bs := c.First(); k != nil; k, bs = c.Next() {
			var ps storage.PredicateState
			if err := json.Unmarshal(bs, &ps); err != nil {
				return err
			}
			pss = append(pss, &ps)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Debug("GetClauses", zap.String("module", module), zap.Int("predicates", len(pss)))

	if len(pss) == 0 {
		return nil, nil
	}
	return pss, nil
}

func (s *Storage) WriteClauses(ctx context.Context, module string, pss []*storage.PredicateState) error {
	if len(pss) == 0 {
		return nil
	}

	vals := make(map[string][]byte, len(pss))
	for _, ps := range pss {
		if ps.Deleted {
			vals[ps.Key()] = nil
			continue
		}
		js, err := json.Marshal(ps)
		if err != nil {
			return err
		}
		vals[ps.Key()] = js
	}

	s.Logger.Debug("WriteClauses", zap.String("module", module), zap.Int("predicates", len(vals)))

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(module))
		if err != nil {
			return err
		}
		for k, bs := range vals {
			key := []byte(k)
			if bs == nil {
				err = b.Delete(key)
			} else {
				err = b.Put(key, bs)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
