package iqdb

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func checkerboard(seed int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(0)
			if (x/4+y/4+seed)%2 == 0 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: uint8(seed * 30), B: 255 - v, A: 255})
		}
	}
	return img
}

func TestAddQueryRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.iqdb")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	id, err := db.AddImage(checkerboard(1), 42)
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected first id 0, got %d", id)
	}

	if _, err := db.AddImage(checkerboard(2), 43); err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	results, err := db.Query(checkerboard(1), 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) == 0 || results[0].PostID != 42 {
		t.Fatalf("expected post 42 to rank first, got %+v", results)
	}

	if err := db.RemoveImage(42); err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}

	results, err = db.Query(checkerboard(1), 2)
	if err != nil {
		t.Fatalf("Query after remove: %v", err)
	}
	for _, r := range results {
		if r.PostID == 42 {
			t.Fatalf("removed post 42 should not be returned: %+v", results)
		}
	}
}

func TestRemoveUnknownPost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.iqdb")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.RemoveImage(999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestReopenReplaysState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.iqdb")
	db1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := db1.AddImage(checkerboard(3), 7); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if err := db1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	stats := db2.Stats()
	if stats.LiveImages != 1 || stats.TotalRows != 1 {
		t.Fatalf("unexpected stats after reopen: %+v", stats)
	}

	sig, err := db2.GetSignature(7)
	if err != nil {
		t.Fatalf("GetSignature: %v", err)
	}
	if sig == nil {
		t.Fatal("expected non-nil signature")
	}
}

func TestAddImageClampsZeroLuminance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.iqdb")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	black := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	id, err := db.AddImage(black, 1)
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	sig, err := db.GetSignature(1)
	if err != nil {
		t.Fatalf("GetSignature: %v", err)
	}
	if sig.Avglf[0] == 0 {
		t.Fatal("expected zero luminance to be clamped away from exact zero")
	}

	stats := db.Stats()
	if stats.LiveImages != 1 {
		t.Fatalf("clamped image must not read back as a tombstone, got stats %+v (id=%d)", stats, id)
	}
}

func TestRemoveImageSkipsIndexCorruptionInsteadOfFailing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.iqdb")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.AddImage(checkerboard(1), 5); err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	sig, err := db.GetSignature(5)
	if err != nil {
		t.Fatalf("GetSignature: %v", err)
	}
	// Desync the in-memory index from the catalog ahead of time, so
	// RemoveImage's own bucket purge finds nothing left to remove.
	db.idx.Remove(0, sig)

	if err := db.RemoveImage(5); err != nil {
		t.Fatalf("RemoveImage should log and skip index corruption, not fail: %v", err)
	}

	if _, err := db.GetSignature(5); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("post 5 should be gone from the coordinator regardless of index corruption, got %v", err)
	}
}

func TestStatsTracksTombstones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.iqdb")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	db.AddImage(checkerboard(1), 1)
	db.AddImage(checkerboard(2), 2)
	db.RemoveImage(1)

	stats := db.Stats()
	if stats.TotalRows != 2 {
		t.Fatalf("expected 2 total rows, got %d", stats.TotalRows)
	}
	if stats.LiveImages != 1 {
		t.Fatalf("expected 1 live image, got %d", stats.LiveImages)
	}
}
