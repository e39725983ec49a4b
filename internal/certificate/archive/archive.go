// Package archive bundles rendered certificates into an in-memory zip.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"certgen/pkg/platform/sentinel"
)

// ErrDuplicateEntry is returned when a name is added twice. It matches
// sentinel.ErrConflict.
var ErrDuplicateEntry = fmt.Errorf("duplicate archive entry: %w", sentinel.ErrConflict)

// ErrClosed is returned by Add and Close after the archive was finalized.
var ErrClosed = errors.New("archive already closed")

// Packager accumulates named entries. It is not safe for concurrent use; a
// batch owns exactly one.
type Packager struct {
	buf      bytes.Buffer
	zw       *zip.Writer
	names    map[string]struct{}
	modified time.Time
	closed   bool
}

// Option configures a Packager.
type Option func(*Packager)

// WithModTime stamps every entry with t.
func WithModTime(t time.Time) Option {
	return func(p *Packager) { p.modified = t }
}

// New creates an empty archive.
func New(opts ...Option) *Packager {
	p := &Packager{names: make(map[string]struct{}), modified: time.Now()}
	for _, opt := range opts {
		opt(p)
	}
	p.zw = zip.NewWriter(&p.buf)
	return p
}

// Add writes a deflate-compressed entry.
func (p *Packager) Add(name string, data []byte) error {
	if p.closed {
		return ErrClosed
	}
	if name == "" {
		return errors.New("archive entry name is empty")
	}
	if _, ok := p.names[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateEntry)
	}
	w, err := p.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: p.modified,
	})
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	p.names[name] = struct{}{}
	return nil
}

// Len returns the number of entries added so far.
func (p *Packager) Len() int { return len(p.names) }

// Close finalizes the archive and returns its bytes. An archive with no
// entries is still a valid zip.
func (p *Packager) Close() ([]byte, error) {
	if p.closed {
		return nil, ErrClosed
	}
	p.closed = true
	if err := p.zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return p.buf.Bytes(), nil
}
