// Package store persists device settings (names, serial numbers, autosend
// flags) in a bolt database so they survive restarts.
package store

import (
	"encoding/binary"
	"path"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/spf13/afero"

	"github.com/chabad360/oscengine/osc"
)

var settingsBucket = []byte("osc.settings")

// Store is a key/value store of settings.
type Store struct {
	db        *bolt.DB
	transient bool
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", path)
	}
	if err := initBoltBuckets(db); err != nil {
		db.Close()
		return nil, err
	}
	osc.LogDebug(osc.ComponentStore, "store opened", "path", path)
	return &Store{db: db}, nil
}

// OpenRandom opens a store at a random temporary location.
func OpenRandom() (*Store, error) {
	dir := afero.GetTempDir(afero.NewOsFs(), path.Join("oscengine", uuid.NewV1().String()))
	return Open(path.Join(dir, "settings.db"))
}

// OpenTransient opens a random store that is deleted on Close.
func OpenTransient() (*Store, error) {
	s, err := OpenRandom()
	if err != nil {
		return nil, err
	}
	s.transient = true
	return s, nil
}

func initBoltBuckets(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
}

// Path returns the database file location.
func (s *Store) Path() string { return s.db.Path() }

// Close closes the database, deleting it if it is transient.
func (s *Store) Close() error {
	p := s.db.Path()
	err := s.db.Close()
	if s.transient {
		osc.LogDebug(osc.ComponentStore, "deleting transient store", "path", p)
		if rerr := afero.NewOsFs().RemoveAll(path.Dir(p)); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

func (s *Store) get(key string) (val []byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(settingsBucket).Get([]byte(key)); v != nil {
			val = append([]byte(nil), v...)
		}
		return nil
	})
	return
}

func (s *Store) put(key string, val []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Put([]byte(key), val)
	})
}

// Int returns the integer stored under key, or def if there is none.
func (s *Store) Int(key string, def int32) (int32, error) {
	v, err := s.get(key)
	if err != nil || v == nil {
		return def, err
	}
	if len(v) != 4 {
		return def, errors.Errorf("setting %s: %d bytes, not an int", key, len(v))
	}
	return int32(binary.BigEndian.Uint32(v)), nil
}

// SetInt stores an integer under key.
func (s *Store) SetInt(key string, v int32) error {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return errors.Wrapf(s.put(key, b), "setting %s", key)
}

// String returns the string stored under key, or def if there is none.
func (s *Store) String(key, def string) (string, error) {
	v, err := s.get(key)
	if err != nil || v == nil {
		return def, err
	}
	return string(v), nil
}

// SetString stores a string under key.
func (s *Store) SetString(key, v string) error {
	return errors.Wrapf(s.put(key, []byte(v)), "setting %s", key)
}
