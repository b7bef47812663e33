// Package identity persists the local user record: the seed phrase all
// keys derive from and the last trade-key index handed out.
package identity

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("identity: not found")

const (
	bucketIdentity = "identity"

	keySeedPhrase     = "seed_phrase"
	keyLastTradeIndex = "last_trade_index"
)

type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open identity db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketIdentity))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSeedPhrase loads the stored seed phrase, generating and
// persisting a fresh one on first run. The returned flag reports
// whether a new phrase was created.
func (s *Store) EnsureSeedPhrase() (string, bool, error) {
	phrase, err := s.SeedPhrase()
	if err == nil {
		return phrase, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}
	phrase, err = newSeedPhrase()
	if err != nil {
		return "", false, err
	}
	if err := s.put(keySeedPhrase, []byte(phrase)); err != nil {
		return "", false, err
	}
	return phrase, true, nil
}

func (s *Store) SeedPhrase() (string, error) {
	raw, err := s.get(keySeedPhrase)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// LastTradeIndex returns the highest trade index already used, 0 when
// no trade has happened yet.
func (s *Store) LastTradeIndex() (int64, error) {
	raw, err := s.get(keyLastTradeIndex)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("identity: corrupt trade index record (%d bytes)", len(raw))
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}

// NextTradeIndex is the index the next take should be keyed with. It
// does not persist anything; call Advance once the take succeeded.
func (s *Store) NextTradeIndex() (int64, error) {
	last, err := s.LastTradeIndex()
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// Advance records that a trade index has been consumed. The stored
// value only moves forward.
func (s *Store) Advance(index int64) error {
	if index < 0 {
		return fmt.Errorf("identity: negative trade index %d", index)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketIdentity))
		if v := b.Get([]byte(keyLastTradeIndex)); len(v) == 8 {
			if int64(binary.BigEndian.Uint64(v)) >= index {
				return nil
			}
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(index))
		return b.Put([]byte(keyLastTradeIndex), buf[:])
	})
}

func (s *Store) put(key string, val []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketIdentity)).Put([]byte(key), val)
	})
}

func (s *Store) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketIdentity)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// The phrase is an opaque secret string; wordlist encoding is a
// presentation concern this client does not need.
func newSeedPhrase() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generate seed phrase: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}
