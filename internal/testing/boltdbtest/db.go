package boltdbtest

import (
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// Open opens a BoltDB database in a new temporary directory.
//
// The returned function must be used to close the database, instead of
// DB.Close(). It also removes the temporary directory.
func Open() (*bbolt.DB, func()) {
	path, remove := TempFile()

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		remove()
		panic(err)
	}

	return db, func() {
		db.Close()
		remove()
	}
}

// TempFile returns the path of a (non-existent) file in a new temporary
// directory, to be used for a BoltDB database.
//
// It returns a function that removes the temporary directory.
func TempFile() (string, func()) {
	dir, err := os.MkdirTemp("", "procstore-boltdb-")
	if err != nil {
		panic(err)
	}

	return filepath.Join(dir, "db.boltdb"), func() {
		os.RemoveAll(dir)
	}
}
