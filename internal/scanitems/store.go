// Package scanitems persists the scan-item catalog: serialized codes grouped
// into folders, stored as a single JSON file.
package scanitems

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/cases"
)

// SchemaVersion is the schema version written to new store files.
const SchemaVersion = "1.2.0"

// schemaConstraint lists the file schema versions this build can read.
const schemaConstraint = "^1.0.0"

var (
	// ErrStoreCorrupted indicates the store file exists but contains invalid data.
	// Callers should abort rather than overwrite it.
	ErrStoreCorrupted = errors.New("scan item store corrupted")

	// ErrIncompatibleVersion indicates the store file was written by an incompatible release.
	ErrIncompatibleVersion = errors.New("incompatible scan item store version")

	ErrItemNotFound   = errors.New("scan item not found")
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderNotEmpty = errors.New("folder is not empty")
	ErrFolderExists   = errors.New("folder already exists")
	ErrDuplicateCode  = errors.New("scan item code already exists")
	ErrEmptyCode      = errors.New("scan item code cannot be empty")
	ErrEmptyName      = errors.New("folder name cannot be empty")
)

// Item is a single serialized code.
type Item struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Label     string    `json:"label,omitempty"`
	FolderID  string    `json:"folder_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the label, or the code when no label is set.
func (i Item) DisplayName() string {
	if i.Label != "" {
		return i.Label
	}
	return i.Code
}

// Folder groups scan items.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows List results. Zero value matches every item.
type Filter struct {
	// FolderID restricts results to one folder.
	FolderID string
	// Unfiled restricts results to items outside any folder. Ignored when FolderID is set.
	Unfiled bool
	// Search matches code or label, case-insensitively.
	Search string
}

type storeData struct {
	Version string             `json:"version"`
	Items   map[string]*Item   `json:"items"`
	Folders map[string]*Folder `json:"folders"`
}

// Store manages the scan-item catalog persisted as a JSON file.
//
// Mutations are write-through: each one takes the cross-process lock, re-reads
// the file so changes made by other processes are kept, applies the change and
// rewrites the file. A failed mutation leaves memory unchanged. Reads serve
// the copy from the last Load or mutation.
type Store struct {
	mu      sync.RWMutex
	path    string
	lock    *fileLock
	now     func() time.Time
	newID   func() string
	items   map[string]*Item
	folders map[string]*Folder
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides ULID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore returns an empty store backed by path. Call Load to read existing data.
func NewStore(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path cannot be empty")
	}
	s := &Store{
		path:    path,
		lock:    newFileLock(path),
		now:     time.Now,
		newID:   func() string { return ulid.Make().String() },
		items:   make(map[string]*Item),
		folders: make(map[string]*Folder),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open creates a store for path and loads it.
func Open(path string, opts ...Option) (*Store, error) {
	s, err := NewStore(path, opts...)
	if err != nil {
		return nil, err
	}
	if err = s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// FilePath returns the file backing the store.
func (s *Store) FilePath() string {
	return s.path
}

// Load reads the store file. A missing file yields an empty catalog.
func (s *Store) Load() error {
	unlock, err := s.lock.acquire()
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	items, folders, err := s.readLocked()
	if err != nil {
		return err
	}
	s.items = items
	s.folders = folders
	return nil
}

// readLocked parses and validates the store file. Caller holds the file lock.
// The returned maps are freshly decoded and safe to modify.
func (s *Store) readLocked() (map[string]*Item, map[string]*Folder, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*Item), make(map[string]*Folder), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading scan item store: %w", err)
	}

	var sd storeData
	if err = json.Unmarshal(data, &sd); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrStoreCorrupted, err)
	}
	if err = checkVersion(sd.Version); err != nil {
		return nil, nil, err
	}

	if sd.Items == nil {
		sd.Items = make(map[string]*Item)
	}
	if sd.Folders == nil {
		sd.Folders = make(map[string]*Folder)
	}
	for id, it := range sd.Items {
		if it == nil || it.ID != id {
			return nil, nil, fmt.Errorf("%w: item entry %q does not match its key", ErrStoreCorrupted, id)
		}
	}
	for id, f := range sd.Folders {
		if f == nil || f.ID != id {
			return nil, nil, fmt.Errorf("%w: folder entry %q does not match its key", ErrStoreCorrupted, id)
		}
	}
	return sd.Items, sd.Folders, nil
}

func checkVersion(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: missing schema version", ErrStoreCorrupted)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: schema version %q: %w", ErrStoreCorrupted, raw, err)
	}
	c, err := semver.NewConstraint(schemaConstraint)
	if err != nil {
		return fmt.Errorf("parsing schema constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: file version %s, supported %s", ErrIncompatibleVersion, v, schemaConstraint)
	}
	return nil
}

// writeLocked persists items and folders. Caller holds s.mu and the file lock.
func (s *Store) writeLocked(items map[string]*Item, folders map[string]*Folder) error {
	data, err := json.MarshalIndent(storeData{
		Version: SchemaVersion,
		Items:   items,
		Folders: folders,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling scan item store: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating scan item store directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err = os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing scan item store temp file: %w", err)
	}
	if err = os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming scan item store temp file: %w", err)
	}
	return nil
}

// mutate applies fn to the catalog as currently on disk and commits the
// result once written.
func (s *Store) mutate(fn func(items map[string]*Item, folders map[string]*Folder) error) error {
	unlock, err := s.lock.acquire()
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	items, folders, err := s.readLocked()
	if err != nil {
		return err
	}
	if err = fn(items, folders); err != nil {
		return err
	}
	if err = s.writeLocked(items, folders); err != nil {
		return err
	}
	s.items = items
	s.folders = folders
	return nil
}

// Get returns a copy of the item with id.
func (s *Store) Get(id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return *it, nil
}

// List returns items matching f, oldest first.
func (s *Store) List(f Filter) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fold := cases.Fold()
	needle := fold.String(f.Search)

	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		switch {
		case f.FolderID != "" && it.FolderID != f.FolderID:
			continue
		case f.FolderID == "" && f.Unfiled && it.FolderID != "":
			continue
		}
		if needle != "" && !containsFolded(fold, it.Code, needle) && !containsFolded(fold, it.Label, needle) {
			continue
		}
		out = append(out, *it)
	}
	sortItems(out)
	return out
}

func containsFolded(fold cases.Caser, s, needle string) bool {
	return s != "" && strings.Contains(fold.String(s), needle)
}

// Count returns the number of stored items.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Add creates a new item. folderID may be empty.
func (s *Store) Add(code, label, folderID string) (Item, error) {
	if code == "" {
		return Item{}, ErrEmptyCode
	}

	var created Item
	err := s.mutate(func(items map[string]*Item, folders map[string]*Folder) error {
		if folderID != "" {
			if _, ok := folders[folderID]; !ok {
				return fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
			}
		}
		for _, it := range items {
			if it.Code == code {
				return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
			}
		}
		now := s.now().UTC()
		created = Item{
			ID:        s.newID(),
			Code:      code,
			Label:     label,
			FolderID:  folderID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		c := created
		items[created.ID] = &c
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return created, nil
}

// Delete removes the item with id.
func (s *Store) Delete(id string) error {
	return s.mutate(func(items map[string]*Item, _ map[string]*Folder) error {
		if _, ok := items[id]; !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		delete(items, id)
		return nil
	})
}

// MoveToFolder files the item under folderID. An empty folderID unfiles it.
func (s *Store) MoveToFolder(itemID, folderID string) error {
	return s.mutate(func(items map[string]*Item, folders map[string]*Folder) error {
		it, ok := items[itemID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		if folderID != "" {
			if _, ok = folders[folderID]; !ok {
				return fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
			}
		}
		it.FolderID = folderID
		it.UpdatedAt = s.now().UTC()
		return nil
	})
}

// CreateFolder adds a folder. Names are unique.
func (s *Store) CreateFolder(name string) (Folder, error) {
	if name == "" {
		return Folder{}, ErrEmptyName
	}

	var created Folder
	err := s.mutate(func(_ map[string]*Item, folders map[string]*Folder) error {
		for _, f := range folders {
			if f.Name == name {
				return fmt.Errorf("%w: %s", ErrFolderExists, name)
			}
		}
		created = Folder{ID: s.newID(), Name: name, CreatedAt: s.now().UTC()}
		c := created
		folders[created.ID] = &c
		return nil
	})
	if err != nil {
		return Folder{}, err
	}
	return created, nil
}

// Folder returns the folder with id.
func (s *Store) Folder(id string) (Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folders[id]
	if !ok {
		return Folder{}, fmt.Errorf("%w: %s", ErrFolderNotFound, id)
	}
	return *f, nil
}

// FindFolder resolves a folder by ID or exact name.
func (s *Store) FindFolder(idOrName string) (Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.folders[idOrName]; ok {
		return *f, nil
	}
	for _, f := range s.folders {
		if f.Name == idOrName {
			return *f, nil
		}
	}
	return Folder{}, fmt.Errorf("%w: %s", ErrFolderNotFound, idOrName)
}

// Folders returns all folders ordered by name.
func (s *Store) Folders() []Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Folder, 0, len(s.folders))
	for _, f := range s.folders {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FolderCounts returns the number of items per folder ID. Unfiled items count under "".
func (s *Store) FolderCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(s.folders)+1)
	for _, it := range s.items {
		counts[it.FolderID]++
	}
	return counts
}

// DeleteFolder removes an empty folder.
func (s *Store) DeleteFolder(id string) error {
	return s.mutate(func(items map[string]*Item, folders map[string]*Folder) error {
		if _, ok := folders[id]; !ok {
			return fmt.Errorf("%w: %s", ErrFolderNotFound, id)
		}
		for _, it := range items {
			if it.FolderID == id {
				return fmt.Errorf("%w: %s", ErrFolderNotEmpty, id)
			}
		}
		delete(folders, id)
		return nil
	})
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
