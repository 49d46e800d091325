// Package sessionfile provides a session store persisting each session as a
// JSON file. It suits single-instance deployments that must survive
// restarts without running Redis.
package sessionfile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
)

const fileExt = ".json"

// record wraps the session with its absolute deadline so expiry survives
// process restarts.
type record struct {
	Session   domainauth.Session `json:"session"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// Store writes one file per session under a directory. Writes go to a temp
// file in the same directory followed by a rename, so a concurrent reader
// sees either the old record or the new one, never a torn write.
type Store struct {
	dir string
	ttl time.Duration
}

// New creates the directory if needed and returns a store.
func New(dir string, ttl time.Duration) (*Store, error) {
	if dir == "" {
		return nil, errors.New("session directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Store{dir: dir, ttl: ttl}, nil
}

func (s *Store) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(record{Session: sess, ExpiresAt: time.Now().Add(s.ttl)})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.writeAtomic(sess.ID, data)
}

func (s *Store) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("read session file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record is as good as absent. Remove it so it does
		// not fail every request for the same cookie.
		_ = os.Remove(s.path(id))
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	if time.Now().After(rec.ExpiresAt) {
		_ = os.Remove(s.path(id))
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	return rec.Session, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	sess, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	return s.Save(ctx, sess)
}

// Sweep removes expired and corrupt session files. Deployments run it
// periodically; it is safe alongside concurrent request traffic.
func (s *Store) Sweep(ctx context.Context) error {
	names, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read session directory: %w", err)
	}

	now := time.Now()
	for _, de := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() || filepath.Ext(de.Name()) != fileExt {
			continue
		}
		full := filepath.Join(s.dir, de.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil || now.After(rec.ExpiresAt) {
			_ = os.Remove(full)
		}
	}
	return nil
}

// path maps a session ID to its file. IDs are cookie values and therefore
// untrusted; encoding them keeps path separators out of the filename.
func (s *Store) path(id string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(id))
	return filepath.Join(s.dir, name+fileExt)
}

func (s *Store) writeAtomic(id string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close session file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(id)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}
