package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return NewStore(WithClock(func() time.Time { return testTime }))
}

func TestNewStoreCreatesRoot(t *testing.T) {
	s := newTestStore()

	root := s.Root()
	assert.Equal(t, RootFolderName, root.Name)
	assert.Empty(t, root.ParentID)

	folders := s.Folders()
	require.Len(t, folders, 1)
	assert.Equal(t, root.ID, folders[0].ID)
}

func TestAddFolder(t *testing.T) {
	s := newTestStore()

	folder, err := s.AddFolder("Photos", s.Root().ID)
	require.NoError(t, err)
	assert.Equal(t, "Photos", folder.Name)
	assert.Equal(t, s.Root().ID, folder.ParentID)
	assert.NotEmpty(t, folder.ID)
}

func TestAddFolderValidation(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	tests := []struct {
		name     string
		folder   string
		parentID string
		wantErr  error
	}{
		{"empty name", "", root.ID, ErrInvalidArgument},
		{"whitespace name", "   ", root.ID, ErrInvalidArgument},
		{"unknown parent", "Photos", "nope", ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(s.Folders())

			_, err := s.AddFolder(tt.folder, tt.parentID)
			assert.ErrorIs(t, err, tt.wantErr)

			// a failed validation must leave the collection unchanged
			assert.Len(t, s.Folders(), before)
		})
	}
}

func TestAddFile(t *testing.T) {
	s := newTestStore()

	photos, err := s.AddFolder("Photos", s.Root().ID)
	require.NoError(t, err)

	file, err := s.AddFile(FileInfo{Name: "a.png", Size: 100, MimeType: "image/png"}, photos.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", file.Name)
	assert.Equal(t, int64(100), file.Size)
	assert.Equal(t, photos.ID, file.FolderID)
	assert.Equal(t, testTime, file.UploadedAt)
	assert.Empty(t, file.TagIDs)
}

func TestAddFileDefaultsToRoot(t *testing.T) {
	s := newTestStore()

	file, err := s.AddFile(FileInfo{Name: "notes.txt", Size: 10}, "")
	require.NoError(t, err)
	assert.Equal(t, s.Root().ID, file.FolderID)
	assert.Equal(t, "application/octet-stream", file.MimeType)
}

func TestAddFileValidation(t *testing.T) {
	s := newTestStore()

	_, err := s.AddFile(FileInfo{Name: "", Size: 10}, s.Root().ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.AddFile(FileInfo{Name: "a.png", Size: -1}, s.Root().ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.AddFile(FileInfo{Name: "a.png", Size: 10}, "nope")
	assert.ErrorIs(t, err, ErrInvalidReference)

	assert.Empty(t, s.Files())
}

func TestAddTag(t *testing.T) {
	s := newTestStore()

	tag, err := s.AddTag("Work", ColorBlue)
	require.NoError(t, err)
	assert.Equal(t, "Work", tag.Name)
	assert.Equal(t, ColorBlue, tag.Color)
}

func TestAddTagRejectsUnknownColor(t *testing.T) {
	s := newTestStore()

	_, err := s.AddTag("Work", Color("magenta"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.AddTag("", ColorBlue)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, s.Tags())
}

func TestMoveFile(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	photos, err := s.AddFolder("Photos", root.ID)
	require.NoError(t, err)

	file, err := s.AddFile(FileInfo{Name: "a.png", Size: 100}, photos.ID)
	require.NoError(t, err)

	moved, err := s.MoveFile(file.ID, root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, moved.FolderID)

	got, err := s.File(file.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, got.FolderID)
}

func TestMoveFileValidation(t *testing.T) {
	s := newTestStore()

	file, err := s.AddFile(FileInfo{Name: "a.png", Size: 100}, "")
	require.NoError(t, err)

	_, err = s.MoveFile("nope", s.Root().ID)
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = s.MoveFile(file.ID, "nope")
	assert.ErrorIs(t, err, ErrInvalidReference)

	got, err := s.File(file.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Root().ID, got.FolderID)
}

func TestDeleteFileCleansUpShares(t *testing.T) {
	s := newTestStore()

	file, err := s.AddFile(FileInfo{Name: "a.png", Size: 100}, "")
	require.NoError(t, err)

	share, err := s.ShareFile(file.ID, 7, PermissionView)
	require.NoError(t, err)

	_, err = s.DeleteFile(file.ID)
	require.NoError(t, err)

	_, err = s.File(file.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Share(share.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesInFolder(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	photos, err := s.AddFolder("Photos", root.ID)
	require.NoError(t, err)

	a, err := s.AddFile(FileInfo{Name: "a.png", Size: 1}, photos.ID)
	require.NoError(t, err)
	_, err = s.AddFile(FileInfo{Name: "b.png", Size: 2}, root.ID)
	require.NoError(t, err)

	files, err := s.FilesInFolder(photos.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, a.ID, files[0].ID)

	_, err = s.FilesInFolder("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReferentialIntegrity(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	photos, err := s.AddFolder("Photos", root.ID)
	require.NoError(t, err)
	vacation, err := s.AddFolder("Vacation", photos.ID)
	require.NoError(t, err)

	work, err := s.AddTag("Work", ColorBlue)
	require.NoError(t, err)

	file, err := s.AddFile(FileInfo{Name: "a.png", Size: 100}, vacation.ID)
	require.NoError(t, err)
	_, err = s.ToggleFileTag(file.ID, work.ID)
	require.NoError(t, err)
	_, err = s.MoveFile(file.ID, photos.ID)
	require.NoError(t, err)
	_, err = s.ShareFile(file.ID, 7, PermissionView)
	require.NoError(t, err)

	snap := s.Snapshot()

	folders := make(map[string]bool)
	for _, f := range snap.Folders {
		folders[f.ID] = true
	}
	tags := make(map[string]bool)
	for _, tg := range snap.Tags {
		tags[tg.ID] = true
	}
	files := make(map[string]bool)
	for _, f := range snap.Files {
		files[f.ID] = true
	}

	for _, f := range snap.Folders {
		if f.ParentID != "" {
			assert.True(t, folders[f.ParentID], "folder %s has dangling parent", f.ID)
		}
	}
	for _, f := range snap.Files {
		assert.True(t, folders[f.FolderID], "file %s has dangling folder", f.ID)
		for _, tagID := range f.TagIDs {
			assert.True(t, tags[tagID], "file %s has dangling tag", f.ID)
		}
	}
	for _, sh := range snap.Shares {
		assert.True(t, files[sh.FileID], "share %s has dangling file", sh.ID)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore()
	root := s.Root()

	photos, err := s.AddFolder("Photos", root.ID)
	require.NoError(t, err)
	work, err := s.AddTag("Work", ColorGreen)
	require.NoError(t, err)
	file, err := s.AddFile(FileInfo{Name: "a.png", Size: 100}, photos.ID)
	require.NoError(t, err)
	_, err = s.ToggleFileTag(file.ID, work.ID)
	require.NoError(t, err)
	share, err := s.ShareFile(file.ID, 7, PermissionEdit)
	require.NoError(t, err)

	restored, err := NewStoreFromSnapshot(s.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, root.ID, restored.Root().ID)
	assert.Equal(t, s.Folders(), restored.Folders())
	assert.Equal(t, s.Files(), restored.Files())
	assert.Equal(t, s.Tags(), restored.Tags())

	got, err := restored.Share(share.ID)
	require.NoError(t, err)
	assert.Equal(t, share, got)
}

func TestNewStoreFromSnapshotValidation(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"no root", &Snapshot{Folders: []Folder{{ID: "a", Name: "A", ParentID: "b"}, {ID: "b", Name: "B", ParentID: "a"}}}},
		{"two roots", &Snapshot{Folders: []Folder{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}},
		{"dangling parent", &Snapshot{Folders: []Folder{{ID: "a", Name: "A"}, {ID: "b", Name: "B", ParentID: "nope"}}}},
		{"file in unknown folder", &Snapshot{
			Folders: []Folder{{ID: "a", Name: "A"}},
			Files:   []File{{ID: "f", Name: "f.txt", FolderID: "nope"}},
		}},
		{"file with unknown tag", &Snapshot{
			Folders: []Folder{{ID: "a", Name: "A"}},
			Files:   []File{{ID: "f", Name: "f.txt", FolderID: "a", TagIDs: []string{"nope"}}},
		}},
		{"share for unknown file", &Snapshot{
			Folders: []Folder{{ID: "a", Name: "A"}},
			Shares:  []ShareRecord{{ID: "s", FileID: "nope"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStoreFromSnapshot(tt.snap)
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}

func TestCopiesAreDetached(t *testing.T) {
	s := newTestStore()

	work, err := s.AddTag("Work", ColorBlue)
	require.NoError(t, err)
	file, err := s.AddFile(FileInfo{Name: "a.png", Size: 100}, "")
	require.NoError(t, err)
	tagged, err := s.ToggleFileTag(file.ID, work.ID)
	require.NoError(t, err)

	// mutating the returned copy must not leak into the store
	tagged.TagIDs[0] = "mangled"

	got, err := s.File(file.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{work.ID}, got.TagIDs)
}
