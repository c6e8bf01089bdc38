package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/sitenav/internal/nav"
	"github.com/ensigniasec/sitenav/internal/validate"
)

// DefaultPath is where the previewer keeps its state.
const DefaultPath = "~/.local/state/sitenav/state.json"

// PageState is what the previewer remembers about a page between runs.
type PageState struct {
	ActiveItem   nav.ItemID `json:"active_item" validate:"required"`
	KeyboardMode bool       `json:"keyboard_mode"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Data represents the structure of the storage file.
type Data struct {
	Pages map[string]PageState `json:"pages"`
}

// Storage handles the loading and saving of the storage file.
type Storage struct {
	Path string `validate:"required,filepath"`
	Data Data
}

// NewStorage creates a new Storage instance.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		path = DefaultPath
	}
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		Path: expandedPath,
		Data: Data{
			Pages: make(map[string]PageState),
		},
	}

	if err := s.Load(); err != nil {
		// If the file doesn't exist, we can ignore the error.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if s.Data.Pages == nil {
		s.Data.Pages = make(map[string]PageState)
	}

	return s, nil
}

// NewOrExistingStorage returns existing storage if the file exists, or creates a new one otherwise.
// When creating a new storage, it writes the initial structure to disk immediately.
func NewOrExistingStorage(path string) (*Storage, error) {
	if path == "" {
		path = DefaultPath
	}
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(expandedPath); err == nil {
		return NewStorage(path)
	} else if os.IsNotExist(err) {
		s, err := NewStorage(path)
		if err != nil {
			return nil, err
		}
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, err
}

func (s *Storage) Load() error {
	logrus.Debug("Loading storage file from: ", s.Path)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &s.Data); err != nil {
		return err
	}

	// Drop entries that cannot be restored and write the healed file back.
	changed := false
	for page, st := range s.Data.Pages {
		if page == "" || validate.Struct(st) != nil {
			logrus.WithField("page", page).Warn("Invalid page state found in storage; dropping.")
			delete(s.Data.Pages, page)
			changed = true
		}
	}
	if changed {
		return s.Save()
	}
	return nil
}

// Save writes the storage data to the file.
func (s *Storage) Save() error {
	logrus.Debug("Saving storage file to: ", s.Path)
	// Ensure parent directory exists.
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.Data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.Path, data, 0o600)
}

// Page returns the remembered state of page.
func (s *Storage) Page(page string) (PageState, bool) {
	st, ok := s.Data.Pages[page]
	return st, ok
}

// Remember records the navigator state of page. An empty active item forgets the page.
func (s *Storage) Remember(page string, st nav.State, at time.Time) {
	if st.ActiveItem == "" {
		delete(s.Data.Pages, page)
		return
	}
	s.Data.Pages[page] = PageState{
		ActiveItem:   st.ActiveItem,
		KeyboardMode: st.KeyboardMode,
		UpdatedAt:    at.UTC(),
	}
}

// PageNames returns the remembered pages in sorted order.
func (s *Storage) PageNames() []string {
	names := make([]string, 0, len(s.Data.Pages))
	for name := range s.Data.Pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset forgets every page.
func (s *Storage) Reset() error {
	s.Data.Pages = make(map[string]PageState)
	return s.Save()
}

// expandTilde expands the tilde in a path to the user's home directory.
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}
