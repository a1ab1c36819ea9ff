package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/mselser95/drops-miner/internal/inventory"
	"go.uber.org/zap"
)

// Settings is the persisted user configuration.
type Settings struct {
	OAuthToken           string                 `json:"oauth_token"`
	UserID               int                    `json:"user_id,omitempty"`
	Username             string                 `json:"username"`
	Priority             []string               `json:"priority"`
	Exclude              []string               `json:"exclude"`
	Language             string                 `json:"language"`
	PriorityMode         inventory.PriorityMode `json:"priority_mode"`
	Proxy                string                 `json:"proxy"`
	AutoClaim            bool                   `json:"auto_claim"`
	NotificationsEnabled bool                   `json:"notifications_enabled"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	return Settings{
		Priority:             []string{},
		Exclude:              []string{},
		Language:             "English",
		PriorityMode:         inventory.PriorityOnly,
		AutoClaim:            true,
		NotificationsEnabled: true,
	}
}

func (s Settings) clone() Settings {
	s.Priority = slices.Clone(s.Priority)
	s.Exclude = slices.Clone(s.Exclude)
	return s
}

// Store is a JSON-file-backed settings holder. Writes only happen on Save.
type Store struct {
	path    string
	logger  *zap.Logger
	mu      sync.RWMutex
	data    Settings
	altered bool
}

// NewStore creates a store for path holding default settings. Call Load to read the file.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		path:   path,
		logger: logger,
		data:   Defaults(),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing file leaves the defaults in place.
// Keys absent from the file keep their default values.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("settings-file-missing", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	data := Defaults()
	err = json.Unmarshal(raw, &data)
	if err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	mode, err := inventory.ParsePriorityMode(string(data.PriorityMode))
	if err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	data.PriorityMode = mode

	if data.Priority == nil {
		data.Priority = []string{}
	}
	if data.Exclude == nil {
		data.Exclude = []string{}
	}

	s.mu.Lock()
	s.data = data
	s.altered = false
	s.mu.Unlock()

	s.logger.Info("settings-loaded", zap.String("path", s.path))

	return nil
}

// Save writes the settings file if they were altered since the last save, or if force is set.
func (s *Store) Save(force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.altered && !force {
		return nil
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(raw)
	if err == nil {
		err = tmp.Chmod(0o600)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}

	s.altered = false
	s.logger.Debug("settings-saved", zap.String("path", s.path))

	return nil
}

// Alter marks the settings as changed so the next Save writes them.
func (s *Store) Alter() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.altered = true
}

// Altered reports whether there are unsaved changes.
func (s *Store) Altered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.altered
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.clone()
}

// Update applies fn to the settings and marks them altered.
func (s *Store) Update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.data)
	s.altered = true
}

// Token returns the current OAuth token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.OAuthToken
}

// IsExcluded reports whether gameName is in the exclusion set, ignoring case.
func (s *Store) IsExcluded(gameName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.ContainsFunc(s.data.Exclude, func(name string) bool {
		return strings.EqualFold(name, gameName)
	})
}
