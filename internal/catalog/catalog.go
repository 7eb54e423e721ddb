// Package catalog provides the durable, crash-atomic, single-writer store
// mapping an internal row id to the signature and post id it was added with.
// It is the system of record; internal/index rebuilds its in-memory inverted
// table by replaying a catalog from id 0 at startup.
//
// No SQL or key-value driver appears anywhere in this project's dependency
// pool, so the catalog is a hand-rolled fixed-size-record file, grounded on
// the same atomic-write discipline as internal/store's FSStore and
// TraceWriter in the donor repo: every mutation is followed by File.Sync,
// and deletion is a tombstone flip rather than a structural rewrite so a row
// id's offset is always headerSize+id*recordSize and never needs renumbering.
package catalog

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/cwbudde/goiqdb/internal/signature"
)

const (
	headerMagic   = "GOIQDBV1"
	headerSize    = 16
	schemaVersion = uint32(1)
)

// Row is a decoded catalog record plus its id.
type Row struct {
	ID      uint32
	PostID  uint32
	Deleted bool
	Sig     *signature.Signature
}

// Catalog is a single-writer, append-mostly store of fixed-size records
// backed by one file. All exported methods are safe for concurrent use.
type Catalog struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	count uint32
}

// Open opens or creates the catalog file at path. A freshly created file
// gets a header written immediately; an existing file has its header
// validated (magic and schema version) before any row is trusted.
func Open(path string) (*Catalog, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, &CatalogIOError{Op: "open", Path: path, Err: err}
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, &CatalogIOError{Op: "stat", Path: path, Err: err}
	}

	c := &Catalog{file: file, path: path}

	if info.Size() == 0 {
		if err := c.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
		return c, nil
	}

	if err := c.readHeader(); err != nil {
		file.Close()
		return nil, err
	}

	rows := info.Size() - headerSize
	if rows < 0 || rows%recordSize != 0 {
		file.Close()
		return nil, &CatalogIOError{Op: "open", Path: path, Err: io.ErrUnexpectedEOF}
	}
	c.count = uint32(rows / recordSize)

	return c, nil
}

func (c *Catalog) writeHeader() error {
	buf := make([]byte, headerSize)
	copy(buf, headerMagic)
	binary.LittleEndian.PutUint32(buf[8:], schemaVersion)
	if _, err := c.file.WriteAt(buf, 0); err != nil {
		return &CatalogIOError{Op: "write header", Path: c.path, Err: err}
	}
	if err := c.file.Sync(); err != nil {
		return &CatalogIOError{Op: "sync", Path: c.path, Err: err}
	}
	return nil
}

func (c *Catalog) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := c.file.ReadAt(buf, 0); err != nil {
		return &CatalogIOError{Op: "read header", Path: c.path, Err: err}
	}
	if string(buf[:8]) != headerMagic {
		return &CatalogIOError{Op: "open", Path: c.path, Err: errMagicMismatch{}}
	}
	version := binary.LittleEndian.Uint32(buf[8:])
	if version != schemaVersion {
		return &SchemaError{Path: c.path, Got: version, Want: schemaVersion}
	}
	return nil
}

type errMagicMismatch struct{}

func (errMagicMismatch) Error() string { return "file header does not match catalog magic" }

// Close flushes and closes the underlying file.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.file.Close(); err != nil {
		return &CatalogIOError{Op: "close", Path: c.path, Err: err}
	}
	return nil
}

// Insert appends a new row for sig under postID and returns its id. The
// write is synced to disk before Insert returns.
func (c *Catalog) Insert(postID uint32, sig *signature.Signature) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.count
	offset := headerSize + int64(id)*recordSize
	buf := encodeRecord(false, postID, sig)
	if _, err := c.file.WriteAt(buf, offset); err != nil {
		return 0, &CatalogIOError{Op: "insert", Path: c.path, Err: err}
	}
	if err := c.file.Sync(); err != nil {
		return 0, &CatalogIOError{Op: "sync", Path: c.path, Err: err}
	}
	c.count++
	return id, nil
}

// Remove flips the deleted flag for id in place. It does not reuse or
// renumber the slot; headerSize+id*recordSize stays valid for the lifetime of
// the file.
func (c *Catalog) Remove(id uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id >= c.count {
		return ErrNotFound
	}
	offset := headerSize + int64(id)*recordSize
	if _, err := c.file.WriteAt([]byte{1}, offset+deletedOff); err != nil {
		return &CatalogIOError{Op: "remove", Path: c.path, Err: err}
	}
	if err := c.file.Sync(); err != nil {
		return &CatalogIOError{Op: "sync", Path: c.path, Err: err}
	}
	return nil
}

// Get reads and decodes the row for id, including tombstoned rows (callers
// check Row.Deleted).
func (c *Catalog) Get(id uint32) (*Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id >= c.count {
		return nil, ErrNotFound
	}
	offset := headerSize + int64(id)*recordSize
	buf := make([]byte, recordSize)
	if _, err := c.file.ReadAt(buf, offset); err != nil {
		return nil, &CatalogIOError{Op: "get", Path: c.path, Err: err}
	}
	deleted, postID, sig := decodeRecord(buf)
	return &Row{ID: id, PostID: postID, Deleted: deleted, Sig: sig}, nil
}

// ListRows reports the total number of rows the catalog holds, including
// tombstoned ones.
func (c *Catalog) ListRows() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.count), nil
}

// Replay streams every row from id 0 in order via a single buffered
// sequential read, calling fn for each. It does not hold the catalog lock
// across the whole scan: callers use it once at startup, before the catalog
// is handed to concurrent writers.
func (c *Catalog) Replay(fn func(Row) error) error {
	c.mu.Lock()
	total := c.count
	c.mu.Unlock()

	f, err := os.Open(c.path)
	if err != nil {
		return &CatalogIOError{Op: "replay", Path: c.path, Err: err}
	}
	defer f.Close()

	if _, err := f.Seek(headerSize, io.SeekStart); err != nil {
		return &CatalogIOError{Op: "replay", Path: c.path, Err: err}
	}

	r := bufio.NewReaderSize(f, 256*1024)
	buf := make([]byte, recordSize)
	for id := uint32(0); id < total; id++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return &CatalogIOError{Op: "replay", Path: c.path, Err: err}
		}
		deleted, postID, sig := decodeRecord(buf)
		if err := fn(Row{ID: id, PostID: postID, Deleted: deleted, Sig: sig}); err != nil {
			return err
		}
	}
	return nil
}
