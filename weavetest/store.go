package weavetest

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/htlcswap/weave/store/leveldb"
)

// LevelDB returns a store instance that is using a filesystem backend
// engine to store the data.
// This implementation should be used instead of MemStore when you want the
// exact same storage implementation as the production instance is using.
func LevelDB(t testing.TB) (db *leveldb.Store, cleanup func()) {
	t.Helper()
	dbpath, err := ioutil.TempDir("", "weavetest")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}
	db, err = leveldb.Open(dbpath)
	if err != nil {
		os.RemoveAll(dbpath)
		t.Fatalf("cannot open database: %s", err)
	}
	return db, func() {
		db.Close()
		os.RemoveAll(dbpath)
	}
}
