package store

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// CreateAll makes sure a sequence key exists for every named table.
// Existing sequences are left untouched.
func CreateAll(db *badger.DB, names []string) error {
	return db.Update(func(txn *badger.Txn) error {
		for _, name := range names {
			key := []byte(seqPrefix + name)
			_, err := txn.Get(key)
			if err == nil {
				continue
			}
			if err != badger.ErrKeyNotFound {
				return err
			}
			if err := txn.Set(key, []byte(strconv.Itoa(0))); err != nil {
				return fmt.Errorf("create table %s: %w", name, err)
			}
		}
		return nil
	})
}

// CountRows returns the number of rows stored in the named table.
func CountRows(db *badger.DB, name string) (int, error) {
	n := 0
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(name + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// DropAll deletes every key in the database.
func DropAll(db *badger.DB) error {
	if err := db.DropAll(); err != nil {
		return fmt.Errorf("drop all: %w", err)
	}
	return nil
}

// Backup writes a full backup of db to w.
func Backup(db *badger.DB, w io.Writer) error {
	if _, err := db.Backup(w, 0); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}
	return nil
}

// Restore loads a backup produced by Backup into db.
func Restore(db *badger.DB, r io.Reader) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic occurred during restore: %v", p)
		}
	}()
	if err := db.Load(r, 16); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}
