package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Gateway          = (*FileStore)(nil)
	_ domain.SessionCompleter = (*FileStore)(nil)
)

// fileVersion is written into every document so the layout can change
// without misreading old files.
const fileVersion = 2

// document is the on-disk layout of one identity's data.
type document struct {
	Version  int                    `json:"version"`
	Profile  *domain.Profile        `json:"profile"`
	Sessions []domain.SessionRecord `json:"sessions"`
}

// FileStore keeps each identity in its own JSON file under a directory.
// Writes go to a temporary file that is renamed into place, so a crash
// never leaves a half-written document behind.
type FileStore struct {
	dir string
	mu  sync.Mutex
	log *logger.Logger
}

// NewFileStore creates a file gateway rooted at dir, creating it if needed.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	log.Debug("file store at %s", dir)
	return &FileStore{dir: dir, log: log}, nil
}

// GetProfile returns the stored profile or domain.ErrNotFound.
func (s *FileStore) GetProfile(ctx context.Context, identity string) (*domain.Profile, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(identity)
	if err != nil {
		return nil, err
	}
	if doc.Profile == nil {
		return nil, domain.ErrNotFound
	}
	return doc.Profile, nil
}

// SetProfile stores a profile, overwriting any previous one.
func (s *FileStore) SetProfile(ctx context.Context, identity string, profile domain.Profile) error {
	return s.update(identity, func(doc *document) {
		doc.Profile = cloneProfile(profile)
	})
}

// Clear deletes the identity's file.
func (s *FileStore) Clear(ctx context.Context, identity string) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(identity))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", identity, err)
	}
	s.log.Debug("cleared %s", identity)
	return nil
}

// AppendSession adds a completed nap to the log.
func (s *FileStore) AppendSession(ctx context.Context, identity string, record domain.SessionRecord) error {
	return s.update(identity, func(doc *document) {
		doc.Sessions = append(doc.Sessions, record)
	})
}

// CompleteSession appends the record and stores the profile in one write.
func (s *FileStore) CompleteSession(ctx context.Context, identity string, profile domain.Profile, record domain.SessionRecord) error {
	return s.update(identity, func(doc *document) {
		doc.Sessions = append(doc.Sessions, record)
		doc.Profile = cloneProfile(profile)
	})
}

// QuerySessions returns the naps in r, ordered by date and completion time.
func (s *FileStore) QuerySessions(ctx context.Context, identity string, r domain.DateRange) ([]domain.SessionRecord, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(identity)
	if err != nil {
		return nil, err
	}
	return selectRange(doc.Sessions, r), nil
}

func (s *FileStore) path(identity string) string {
	return filepath.Join(s.dir, url.PathEscape(identity)+".json")
}

func (s *FileStore) update(identity string, mutate func(*document)) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(identity)
	if err != nil {
		return err
	}
	mutate(doc)
	return s.write(identity, doc)
}

// read loads a document. A missing file is an empty document.
func (s *FileStore) read(identity string) (*document, error) {
	data, err := os.ReadFile(s.path(identity))
	if errors.Is(err, fs.ErrNotExist) {
		return &document{Version: fileVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", identity, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", identity, err)
	}
	if doc.Version > fileVersion {
		return nil, fmt.Errorf("decoding %s: unsupported version %d", identity, doc.Version)
	}
	return &doc, nil
}

func (s *FileStore) write(identity string, doc *document) error {
	doc.Version = fileVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", identity, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".napflow-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", identity, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", identity, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", identity, err)
	}
	if err := os.Rename(tmp.Name(), s.path(identity)); err != nil {
		return fmt.Errorf("replacing %s: %w", identity, err)
	}

	s.log.Debug("wrote %s (%d naps, %d bytes)", identity, len(doc.Sessions), len(data))
	return nil
}
