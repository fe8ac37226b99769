package feedpage

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/golang/snappy"
)

const cacheExt = ".sz"

// Store persists one gob-encoded, snappy-compressed Record per source
// under a cache root directory. Nothing else reads these files.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Filename derives the cache file name for a source name: letters and
// digits are lower-cased, whitespace and -/_ collapse to '-', everything
// else is dropped. Distinct names can collide; accepted, since the
// mapping is an internal detail.
func (s *Store) Filename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return b.String() + cacheExt
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, s.Filename(name))
}

// Load reads the record for a source. A missing file means a brand-new
// source and yields an empty record; anything else that goes wrong is an
// error for that source only.
func (s *Store) Load(name string) (*Record, error) {
	b, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		log.Printf("no cache yet for %s, starting empty", name)
		return &Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	var rec Record
	if err := gob.NewDecoder(snappy.NewReader(bytes.NewReader(b))).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}
	return &rec, nil
}

// Save writes the record for a source, creating the cache root if needed.
// The write is not atomic; a half-written file on crash is an accepted
// risk.
func (s *Store) Save(name string, rec *Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	var buf bytes.Buffer
	sw := snappy.NewBufferedWriter(&buf)
	if err := gob.NewEncoder(sw).Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("compress record: %w", err)
	}
	if err := os.WriteFile(s.path(name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}
