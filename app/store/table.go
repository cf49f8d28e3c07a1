package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Model is implemented by every persisted type.
type Model interface {
	GetID() int
	SetID(id int)
}

// ModelPtr constrains P to be *T implementing Model.
type ModelPtr[T any] interface {
	*T
	Model
}

// Table gives CRUD access to one model type.
type Table[T any, P ModelPtr[T]] struct {
	name string
	db   *badger.DB
}

// Define registers a table bound to the default database.
func Define[T any, P ModelPtr[T]](name string) *Table[T, P] {
	register(name)
	return &Table[T, P]{name: name}
}

// NewTable returns a table bound to db. It is not registered with Models.
func NewTable[T any, P ModelPtr[T]](db *badger.DB, name string) *Table[T, P] {
	return &Table[T, P]{name: name, db: db}
}

// Name returns the table's key prefix.
func (t *Table[T, P]) Name() string {
	return t.name
}

func (t *Table[T, P]) database() (*badger.DB, error) {
	if t.db != nil {
		return t.db, nil
	}
	if db := Default(); db != nil {
		return db, nil
	}
	return nil, ErrNoDB
}

func (t *Table[T, P]) key(id int) []byte {
	return []byte(fmt.Sprintf("%s:%d", t.name, id))
}

func (t *Table[T, P]) prefix() []byte {
	return []byte(t.name + ":")
}

// Create assigns the next id to m and stores it.
func (t *Table[T, P]) Create(m P) error {
	db, err := t.database()
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		id, err := nextID(txn, seqPrefix+t.name)
		if err != nil {
			return err
		}
		m.SetID(id)
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", t.name, err)
		}
		return txn.Set(t.key(id), data)
	})
}

// Get loads the row with the given id.
func (t *Table[T, P]) Get(id int) (P, error) {
	db, err := t.database()
	if err != nil {
		return nil, err
	}
	var m T
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(t.key(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Save overwrites an existing row.
func (t *Table[T, P]) Save(m P) error {
	db, err := t.database()
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		key := t.key(m.GetID())
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", t.name, err)
		}
		return txn.Set(key, data)
	})
}

// Delete removes the row with the given id.
func (t *Table[T, P]) Delete(id int) error {
	db, err := t.database()
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		key := t.key(id)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// All returns every row ordered by id.
func (t *Table[T, P]) All() ([]P, error) {
	return t.Where(nil)
}

// Where returns the rows accepted by keep (all rows when keep is nil), ordered by id.
func (t *Table[T, P]) Where(keep func(P) bool) ([]P, error) {
	db, err := t.database()
	if err != nil {
		return nil, err
	}
	var rows []P
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := t.prefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal %s: %w", t.name, err)
			}
			if keep == nil || keep(&m) {
				rows = append(rows, &m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].GetID() < rows[j].GetID() })
	return rows, nil
}

// Count returns the number of rows.
func (t *Table[T, P]) Count() (int, error) {
	db, err := t.database()
	if err != nil {
		return 0, err
	}
	return CountRows(db, t.name)
}

// nextID gets the next available ID for a given sequence key
func nextID(txn *badger.Txn, seqKey string) (int, error) {
	id := 1
	item, err := txn.Get([]byte(seqKey))
	switch {
	case err == badger.ErrKeyNotFound:
	case err != nil:
		return 0, fmt.Errorf("failed to get sequence: %w", err)
	default:
		err = item.Value(func(val []byte) error {
			last, err := strconv.Atoi(strings.TrimSpace(string(val)))
			if err != nil {
				return fmt.Errorf("failed to parse sequence: %w", err)
			}
			id = last + 1
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	if err := txn.Set([]byte(seqKey), []byte(strconv.Itoa(id))); err != nil {
		return 0, fmt.Errorf("failed to update sequence: %w", err)
	}
	return id, nil
}
