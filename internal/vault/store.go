package vault

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// RootFolderName is the name of the distinguished root folder created at
// store initialization.
const RootFolderName = "Home"

// Store is the single source of truth for files, folders, tags and share
// records. All mutation goes through it; a failed validation leaves every
// collection unchanged. Callers receive copies, never internal pointers.
//
// The store itself is a synchronous structure; the RWMutex exists because
// the HTTP layer calls it from concurrent handlers.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	newID    func() string
	newToken func() string

	folders map[string]*Folder
	files   map[string]*File
	tags    map[string]*Tag
	shares  map[string]*ShareRecord

	// creation order of each collection, for deterministic listings
	folderOrder []string
	fileOrder   []string
	tagOrder    []string
	shareOrder  []string

	rootID string
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the store's time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store with its root folder.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		newID:    uuid.NewString,
		newToken: func() string { return gonanoid.Must() },
		folders:  make(map[string]*Folder),
		files:    make(map[string]*File),
		tags:     make(map[string]*Tag),
		shares:   make(map[string]*ShareRecord),
	}
	for _, opt := range opts {
		opt(s)
	}

	root := &Folder{
		ID:        s.newID(),
		Name:      RootFolderName,
		CreatedAt: s.now(),
	}
	s.folders[root.ID] = root
	s.folderOrder = append(s.folderOrder, root.ID)
	s.rootID = root.ID

	return s
}

// NewStoreFromSnapshot restores a store from a previously persisted
// snapshot. The snapshot must contain exactly one root folder and every
// reference must resolve, otherwise ErrInvalidReference is returned.
func NewStoreFromSnapshot(snap *Snapshot, opts ...Option) (*Store, error) {
	s := &Store{
		now:      time.Now,
		newID:    uuid.NewString,
		newToken: func() string { return gonanoid.Must() },
		folders:  make(map[string]*Folder),
		files:    make(map[string]*File),
		tags:     make(map[string]*Tag),
		shares:   make(map[string]*ShareRecord),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, f := range snap.Folders {
		f := f
		if _, ok := s.folders[f.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate folder %q", ErrInvalidReference, f.ID)
		}
		s.folders[f.ID] = &f
		s.folderOrder = append(s.folderOrder, f.ID)
		if f.ParentID == "" {
			if s.rootID != "" {
				return nil, fmt.Errorf("%w: multiple root folders", ErrInvalidReference)
			}
			s.rootID = f.ID
		}
	}
	if s.rootID == "" {
		return nil, fmt.Errorf("%w: snapshot has no root folder", ErrInvalidReference)
	}
	for _, f := range snap.Folders {
		if f.ParentID != "" {
			if _, ok := s.folders[f.ParentID]; !ok {
				return nil, fmt.Errorf("%w: folder %q parent %q", ErrInvalidReference, f.ID, f.ParentID)
			}
		}
	}

	for _, t := range snap.Tags {
		t := t
		s.tags[t.ID] = &t
		s.tagOrder = append(s.tagOrder, t.ID)
	}

	for _, f := range snap.Files {
		f := f
		if _, ok := s.folders[f.FolderID]; !ok {
			return nil, fmt.Errorf("%w: file %q folder %q", ErrInvalidReference, f.ID, f.FolderID)
		}
		for _, tagID := range f.TagIDs {
			if _, ok := s.tags[tagID]; !ok {
				return nil, fmt.Errorf("%w: file %q tag %q", ErrInvalidReference, f.ID, tagID)
			}
		}
		f.TagIDs = append([]string(nil), f.TagIDs...)
		s.files[f.ID] = &f
		s.fileOrder = append(s.fileOrder, f.ID)
	}

	for _, sh := range snap.Shares {
		sh := sh
		if _, ok := s.files[sh.FileID]; !ok {
			return nil, fmt.Errorf("%w: share %q file %q", ErrInvalidReference, sh.ID, sh.FileID)
		}
		s.shares[sh.ID] = &sh
		s.shareOrder = append(s.shareOrder, sh.ID)
	}

	return s, nil
}

// Root returns the distinguished root folder.
func (s *Store) Root() Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.folders[s.rootID]
}

// FileInfo is the descriptive metadata supplied by the upload collaborator.
type FileInfo struct {
	Name     string
	Size     int64
	MimeType string
}

// AddFile registers a new file in the given folder. An empty folderID
// places the file in the root folder.
func (s *Store) AddFile(info FileInfo, folderID string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(info.Name)
	if name == "" {
		return File{}, fmt.Errorf("%w: file name must not be empty", ErrInvalidArgument)
	}
	if info.Size < 0 {
		return File{}, fmt.Errorf("%w: file size must not be negative", ErrInvalidArgument)
	}
	if folderID == "" {
		folderID = s.rootID
	}
	if _, ok := s.folders[folderID]; !ok {
		return File{}, fmt.Errorf("%w: folder %q", ErrInvalidReference, folderID)
	}

	mimeType := info.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	f := &File{
		ID:         s.newID(),
		Name:       name,
		Size:       info.Size,
		MimeType:   mimeType,
		FolderID:   folderID,
		UploadedAt: s.now(),
	}
	s.files[f.ID] = f
	s.fileOrder = append(s.fileOrder, f.ID)

	return copyFile(f), nil
}

// AddFolder creates a new folder under the given parent.
func (s *Store) AddFolder(name, parentID string) (Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, fmt.Errorf("%w: folder name must not be empty", ErrInvalidArgument)
	}
	if parentID == "" {
		parentID = s.rootID
	}
	if _, ok := s.folders[parentID]; !ok {
		return Folder{}, fmt.Errorf("%w: folder %q", ErrInvalidReference, parentID)
	}

	f := &Folder{
		ID:        s.newID(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: s.now(),
	}
	s.folders[f.ID] = f
	s.folderOrder = append(s.folderOrder, f.ID)

	return *f, nil
}

// AddTag creates a new tag. The color must be a member of the palette.
func (s *Store) AddTag(name string, color Color) (Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, fmt.Errorf("%w: tag name must not be empty", ErrInvalidArgument)
	}
	if !color.Valid() {
		return Tag{}, fmt.Errorf("%w: unknown tag color %q", ErrInvalidArgument, color)
	}

	t := &Tag{
		ID:        s.newID(),
		Name:      name,
		Color:     color,
		CreatedAt: s.now(),
	}
	s.tags[t.ID] = t
	s.tagOrder = append(s.tagOrder, t.ID)

	return *t, nil
}

// MoveFile rewrites the file's folder reference. Files may move into any
// existing folder including the root; only folders form the tree, so no
// cycle check applies here.
func (s *Store) MoveFile(fileID, targetFolderID string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return File{}, fmt.Errorf("%w: file %q", ErrInvalidReference, fileID)
	}
	if _, ok := s.folders[targetFolderID]; !ok {
		return File{}, fmt.Errorf("%w: folder %q", ErrInvalidReference, targetFolderID)
	}

	f.FolderID = targetFolderID
	return copyFile(f), nil
}

// DeleteFile removes a file, its tag links and its share records.
func (s *Store) DeleteFile(fileID string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return File{}, fmt.Errorf("%w: file %q", ErrInvalidReference, fileID)
	}

	removed := copyFile(f)
	delete(s.files, fileID)
	s.fileOrder = remove(s.fileOrder, fileID)

	for _, shareID := range s.shareOrder {
		if sh, ok := s.shares[shareID]; ok && sh.FileID == fileID {
			delete(s.shares, shareID)
		}
	}
	kept := s.shareOrder[:0]
	for _, shareID := range s.shareOrder {
		if _, ok := s.shares[shareID]; ok {
			kept = append(kept, shareID)
		}
	}
	s.shareOrder = kept

	return removed, nil
}

// File returns a copy of the file with the given id.
func (s *Store) File(id string) (File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return File{}, fmt.Errorf("%w: file %q", ErrNotFound, id)
	}
	return copyFile(f), nil
}

// Folder returns a copy of the folder with the given id.
func (s *Store) Folder(id string) (Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folders[id]
	if !ok {
		return Folder{}, fmt.Errorf("%w: folder %q", ErrNotFound, id)
	}
	return *f, nil
}

// Tag returns a copy of the tag with the given id.
func (s *Store) Tag(id string) (Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tags[id]
	if !ok {
		return Tag{}, fmt.Errorf("%w: tag %q", ErrNotFound, id)
	}
	return *t, nil
}

// Files lists every file in creation order.
func (s *Store) Files() []File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]File, 0, len(s.fileOrder))
	for _, id := range s.fileOrder {
		out = append(out, copyFile(s.files[id]))
	}
	return out
}

// Folders lists every folder in creation order, root first.
func (s *Store) Folders() []Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Folder, 0, len(s.folderOrder))
	for _, id := range s.folderOrder {
		out = append(out, *s.folders[id])
	}
	return out
}

// Tags lists every tag in creation order.
func (s *Store) Tags() []Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tag, 0, len(s.tagOrder))
	for _, id := range s.tagOrder {
		out = append(out, *s.tags[id])
	}
	return out
}

// FilesInFolder lists the files placed directly in the given folder.
func (s *Store) FilesInFolder(folderID string) ([]File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.folders[folderID]; !ok {
		return nil, fmt.Errorf("%w: folder %q", ErrNotFound, folderID)
	}
	var out []File
	for _, id := range s.fileOrder {
		if f := s.files[id]; f.FolderID == folderID {
			out = append(out, copyFile(f))
		}
	}
	return out, nil
}

// TagsOnFile lists the tags attached to the given file, in attachment order.
func (s *Store) TagsOnFile(fileID string) ([]Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: file %q", ErrNotFound, fileID)
	}
	out := make([]Tag, 0, len(f.TagIDs))
	for _, tagID := range f.TagIDs {
		out = append(out, *s.tags[tagID])
	}
	return out, nil
}

// Snapshot returns a full copy of the four collections in creation order.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Folders: make([]Folder, 0, len(s.folderOrder)),
		Files:   make([]File, 0, len(s.fileOrder)),
		Tags:    make([]Tag, 0, len(s.tagOrder)),
		Shares:  make([]ShareRecord, 0, len(s.shareOrder)),
	}
	for _, id := range s.folderOrder {
		snap.Folders = append(snap.Folders, *s.folders[id])
	}
	for _, id := range s.fileOrder {
		snap.Files = append(snap.Files, copyFile(s.files[id]))
	}
	for _, id := range s.tagOrder {
		snap.Tags = append(snap.Tags, *s.tags[id])
	}
	for _, id := range s.shareOrder {
		snap.Shares = append(snap.Shares, *s.shares[id])
	}
	return snap
}

func copyFile(f *File) File {
	out := *f
	out.TagIDs = append([]string(nil), f.TagIDs...)
	return out
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
