// Package iqdb is the coordinator tying a durable catalog to an in-memory
// inverted index: a single shared value behind one handle, guarded by one
// lock, in the spirit of the donor repo's JobManager guarding its job map.
package iqdb

import (
	"image"
	"log/slog"
	"sync"

	"github.com/cwbudde/goiqdb/internal/catalog"
	"github.com/cwbudde/goiqdb/internal/index"
	"github.com/cwbudde/goiqdb/internal/signature"
)

// replayLogInterval controls how often Open logs startup replay progress.
const replayLogInterval = 250_000

// Stats summarizes the current size of the database.
type Stats struct {
	TotalRows  int
	LiveImages int
}

// DB is the reverse-image-search database: a catalog file plus the
// in-memory bucket index rebuilt from it. All exported methods are safe for
// concurrent use.
type DB struct {
	mu       sync.RWMutex
	cat      *catalog.Catalog
	idx      *index.Bin
	postToID map[uint32]uint32
}

// Open opens the catalog at path, creating it if necessary, and replays
// every live row into a fresh in-memory index before returning.
func Open(path string) (*DB, error) {
	cat, err := catalog.Open(path)
	if err != nil {
		return nil, err
	}

	idx := index.New()
	postToID := make(map[uint32]uint32)
	replayed := 0

	err = cat.Replay(func(row catalog.Row) error {
		if !row.Deleted {
			idx.AddInMemory(row.ID, row.PostID, row.Sig)
			postToID[row.PostID] = row.ID
		}
		replayed++
		if replayed%replayLogInterval == 0 {
			slog.Info("catalog replay progress", "rows", replayed)
		}
		return nil
	})
	if err != nil {
		cat.Close()
		return nil, err
	}
	slog.Info("catalog replay complete", "rows", replayed, "live", len(postToID))

	return &DB{cat: cat, idx: idx, postToID: postToID}, nil
}

// Close releases the underlying catalog file.
func (db *DB) Close() error {
	return db.cat.Close()
}

// zeroLuminanceEpsilon replaces an exact-zero avglf[0], which is otherwise
// indistinguishable from a tombstoned info slot (see index.ImageInfo.Deleted).
const zeroLuminanceEpsilon = 1e-6

// AddImage computes img's signature, persists it to the catalog, and
// indexes it under postID. The signature is computed before any lock is
// taken so a slow decode never blocks concurrent queries.
func (db *DB) AddImage(img image.Image, postID uint32) (uint32, error) {
	sig, err := signature.Compute(img)
	if err != nil {
		return 0, err
	}
	if sig.Avglf[0] == 0 {
		clamped := *sig
		clamped.Avglf[0] = zeroLuminanceEpsilon
		sig = &clamped
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	id, err := db.cat.Insert(postID, sig)
	if err != nil {
		return 0, err
	}
	db.idx.AddInMemory(id, postID, sig)
	db.postToID[postID] = id
	return id, nil
}

// RemoveImage tombstones the catalog row for postID, then purges its bucket
// entries. The catalog is updated first: a crash between the two leaves a
// durably-deleted row with stray index entries, which is safe (the row is
// never returned from the catalog again), rather than a live row the index
// has forgotten.
func (db *DB) RemoveImage(postID uint32) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, ok := db.postToID[postID]
	if !ok {
		return &PostNotFoundError{PostID: postID}
	}

	row, err := db.cat.Get(id)
	if err != nil {
		return err
	}
	if err := db.cat.Remove(id); err != nil {
		return err
	}
	// The catalog row is already tombstoned at this point, so the image can
	// no longer be returned by GetSignature or replayed on the next Open
	// regardless of what happens below; a bucket mismatch here is logged and
	// skipped rather than treated as fatal, per the index's own error policy.
	if err := db.idx.Remove(id, row.Sig); err != nil {
		slog.Error("index corruption during remove", "post_id", postID, "iqdb_id", id, "err", err)
	}
	delete(db.postToID, postID)
	return nil
}

// Query computes img's signature and returns up to k ranked matches.
func (db *DB) Query(img image.Image, k int) ([]index.Result, error) {
	sig, err := signature.Compute(img)
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.idx.Query(sig, k), nil
}

// GetSignature returns the signature stored for postID.
func (db *DB) GetSignature(postID uint32) (*signature.Signature, error) {
	db.mu.RLock()
	id, ok := db.postToID[postID]
	db.mu.RUnlock()
	if !ok {
		return nil, &PostNotFoundError{PostID: postID}
	}

	row, err := db.cat.Get(id)
	if err != nil {
		return nil, err
	}
	return row.Sig, nil
}

// Stats reports the current catalog and index size.
func (db *DB) Stats() Stats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	n, _ := db.cat.ListRows()
	return Stats{TotalRows: n, LiveImages: len(db.postToID)}
}
