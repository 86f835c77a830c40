package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/workspacelabs/workspace-mcp/internal/logging"
)

var (
	// ErrNotFound indicates no record exists for the account.
	ErrNotFound = errors.New("credential not found")

	// ErrCorrupt indicates a record file exists but could not be parsed.
	// Corrupt files are never deleted or regenerated by the store; recovery
	// requires explicit operator action or re-authentication.
	ErrCorrupt = errors.New("credential corrupt")
)

const recordSuffix = ".json"

// OperationRecorder receives one observation per store operation. It is
// satisfied by instrumentation.Metrics.
type OperationRecorder interface {
	RecordStoreOperation(ctx context.Context, operation, result string)
}

// Store persists credential records in one directory, one file per account.
type Store struct {
	dir      string
	mu       sync.Mutex
	logger   *slog.Logger
	recorder OperationRecorder
}

// StoreOption configures optional store behavior.
type StoreOption func(*Store)

// WithStoreRecorder sets the recorder notified on every store operation.
func WithStoreRecorder(recorder OperationRecorder) StoreOption {
	return func(s *Store) { s.recorder = recorder }
}

// NewStore creates a store bound to dir. The directory must already exist;
// it is resolved and created by config.Resolve at startup.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("credentials dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("credentials dir %s: not a directory", dir)
	}
	s := &Store{dir: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetLogger sets a custom logger for the store.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

func (s *Store) record(operation string, err error) {
	if s.recorder == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	s.recorder.RecordStoreOperation(context.Background(), operation, result)
}

// Dir returns the directory the store is bound to.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads the record for email. A missing file is ErrNotFound; a file that
// cannot be parsed is ErrCorrupt.
func (s *Store) Load(email string) (Record, error) {
	rec, err := s.load(email)
	s.record("load", err)
	return rec, err
}

func (s *Store) load(email string) (Record, error) {
	data, err := os.ReadFile(s.path(email))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, logging.AnonymizeEmail(email))
		}
		return Record{}, fmt.Errorf("reading credential for %s: %w", logging.AnonymizeEmail(email), err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, logging.AnonymizeEmail(email), err)
	}
	if rec.Email == "" || rec.AccessToken == "" {
		return Record{}, fmt.Errorf("%w: %s: missing required fields", ErrCorrupt, logging.AnonymizeEmail(email))
	}

	return rec, nil
}

// Save writes the record for email atomically: the content goes to a temp
// file in the same directory and is renamed into place, so a concurrent Load
// sees either the previous record or the new one, never a partial write.
// Saves serialize behind the store mutex.
func (s *Store) Save(email string, rec Record) error {
	err := s.save(email, rec)
	s.record("save", err)
	return err
}

func (s *Store) save(email string, rec Record) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if rec.Email == "" {
		rec.Email = email
	}
	if rec.Email != email {
		return fmt.Errorf("record email %s does not match key %s",
			logging.AnonymizeEmail(rec.Email), logging.AnonymizeEmail(email))
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-credential-*")
	if err != nil {
		return fmt.Errorf("creating temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting credential file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credential: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing credential: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing credential: %w", err)
	}

	if err := os.Rename(tmpName, s.path(email)); err != nil {
		return fmt.Errorf("installing credential: %w", err)
	}

	s.logger.Debug("saved credential",
		logging.UserHash(email),
		slog.Time("expiry", rec.Expiry))
	return nil
}

// List returns the account emails of valid record files in the bound
// directory, sorted. Files that do not parse are skipped with a warning;
// they surface as ErrCorrupt on Load.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing credentials dir %s: %w", s.dir, err)
	}

	var emails []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordSuffix) || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable credential file", "file", name, logging.Err(err))
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil || rec.Email == "" {
			s.logger.Warn("skipping unparsable credential file", "file", name)
			continue
		}
		emails = append(emails, rec.Email)
	}

	sort.Strings(emails)
	return emails, nil
}

// Delete removes the record for email. Deleting an absent record is a no-op.
func (s *Store) Delete(email string) error {
	err := s.delete(email)
	s.record("delete", err)
	return err
}

func (s *Store) delete(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(email))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting credential for %s: %w", logging.AnonymizeEmail(email), err)
	}
	if err == nil {
		s.logger.Info("deleted credential", logging.UserHash(email))
	}
	return nil
}

func (s *Store) path(email string) string {
	return filepath.Join(s.dir, fileName(email)+recordSuffix)
}

// fileName maps an account email to a deterministic, filesystem-safe name.
// Path separators and other hostile runes are replaced; the canonical email
// lives inside the record itself.
func fileName(email string) string {
	var b strings.Builder
	for _, r := range email {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '@' || r == '.' || r == '-' || r == '_' || r == '+':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
