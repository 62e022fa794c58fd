package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"labcheck/internal/artifact"
	"labcheck/internal/logger"
)

// secretKeyFile holds the key of the store's secret digests, readable by the
// owner only.
const secretKeyFile = "secret.key"

var (
	// ErrBaselineNotFound is returned when a baseline doesn't exist.
	ErrBaselineNotFound = errors.New("baseline not found")
	// ErrInvalidName is returned for names that cannot be stored.
	ErrInvalidName = errors.New("invalid baseline name")
)

// Store keeps baselines as JSON files in one directory.
type Store struct {
	Dir string
	log *zap.Logger
}

// NewStore creates a store with the given directory.
func NewStore(dir string, log *zap.Logger) *Store {
	return &Store{Dir: dir, log: logger.OrNop(log)}
}

// DefaultDir returns the default baseline directory (~/.labcheck/baselines).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".labcheck", "baselines")
	}
	return filepath.Join(home, ".labcheck", "baselines")
}

// ResolveDir returns the configured directory, or DefaultDir when unset.
func ResolveDir(configured string) string {
	if configured != "" {
		return configured
	}
	return DefaultDir()
}

// Save stores a baseline, replacing any previous one with the same name.
// The file is replaced atomically, so readers never see a partial write.
func (s *Store) Save(b Baseline) error {
	path, err := s.path(b.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create baseline directory: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode baseline %s: %w", b.Name, err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".baseline-*")
	if err != nil {
		return fmt.Errorf("save baseline %s: %w", b.Name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("save baseline %s: %w", b.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save baseline %s: %w", b.Name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save baseline %s: %w", b.Name, err)
	}

	s.log.Debug("baseline saved", zap.String("name", b.Name), zap.String("path", path), zap.Int("variables", len(b.ConfigValues)))
	return nil
}

// Load retrieves a baseline by name.
func (s *Store) Load(name string) (Baseline, error) {
	path, err := s.path(name)
	if err != nil {
		return Baseline{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Baseline{}, ErrBaselineNotFound
		}
		return Baseline{}, err
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return Baseline{}, fmt.Errorf("decode baseline %s: %w", name, err)
	}

	return b, nil
}

// List returns all stored baselines ordered by name. Unreadable files are
// skipped.
func (s *Store) List() ([]BaselineSummary, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BaselineSummary{}, nil
		}
		return nil, err
	}

	summaries := []BaselineSummary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.Dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable baseline", zap.String("path", path), zap.Error(err))
			continue
		}

		var b Baseline
		if err := json.Unmarshal(data, &b); err != nil {
			s.log.Warn("skipping invalid baseline", zap.String("path", path), zap.Error(err))
			continue
		}

		summaries = append(summaries, BaselineSummary{
			Name:       b.Name,
			Root:       b.Root,
			ConfigHash: b.ConfigHash,
			Keys:       len(b.ConfigValues),
			Timestamp:  b.Timestamp,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

// Delete removes a baseline by name.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBaselineNotFound
		}
		return err
	}

	return nil
}

// Exists checks if a baseline exists.
func (s *Store) Exists(name string) bool {
	path, err := s.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (s *Store) path(name string) (string, error) {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	safeName := strings.ReplaceAll(name, "/", "_")
	safeName = strings.ReplaceAll(safeName, "\\", "_")
	return filepath.Join(s.Dir, safeName+".json"), nil
}

// SecretKey returns the key that digests secrets for this store, creating
// it on first use. Every baseline in the store is digested with it.
func (s *Store) SecretKey() (artifact.SecretKey, error) {
	path := filepath.Join(s.Dir, secretKeyFile)
	data, err := os.ReadFile(path)
	if err == nil {
		return artifact.ParseSecretKey(string(data))
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read secret key: %w", err)
	}

	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create baseline directory: %w", err)
	}
	key, err := artifact.NewSecretKey()
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(s.Dir, ".secret-*")
	if err != nil {
		return nil, fmt.Errorf("create secret key: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(key.String() + "\n"); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write secret key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("write secret key: %w", err)
	}
	// Link fails when another process created the key first; use theirs.
	if err := os.Link(tmp.Name(), path); err != nil {
		if os.IsExist(err) {
			return s.SecretKey()
		}
		return nil, fmt.Errorf("install secret key: %w", err)
	}

	s.log.Debug("secret key created", zap.String("path", path))
	return key, nil
}
