// Package store persists models as JSON documents in BadgerDB.
//
// Every model type gets a Table keyed "<name>:<id>" with an
// auto-incrementing sequence stored under "seq:<name>".
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrNoDB     = errors.New("store: no database in use")
)

const seqPrefix = "seq:"

var (
	mu        sync.RWMutex
	defaultDB *badger.DB
	models    []string
)

// Open opens (creating if needed) the database at path.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

// OpenInMemory opens a throwaway in-memory database.
func OpenInMemory() (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return db, nil
}

// Use makes db the database used by tables defined without an explicit one.
func Use(db *badger.DB) {
	mu.Lock()
	defer mu.Unlock()
	defaultDB = db
}

// Default returns the database set with Use, or nil.
func Default() *badger.DB {
	mu.RLock()
	defer mu.RUnlock()
	return defaultDB
}

// Models lists the names of every table created with Define, in definition order.
func Models() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Clone(models)
}

func register(name string) {
	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(models, name) {
		models = append(models, name)
	}
}
