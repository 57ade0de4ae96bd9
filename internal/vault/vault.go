package vault

import (
	"io"
	"time"
)

// Color is a tag display color. Only members of the fixed palette are valid.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
	ColorIndigo Color = "indigo"
)

// Palette lists every valid tag color.
var Palette = []Color{
	ColorBlue, ColorRed, ColorGreen, ColorYellow, ColorPurple, ColorPink, ColorIndigo,
}

// Valid reports whether c is a member of the palette.
func (c Color) Valid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// Permission is the access level granted by a share link.
type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// File represents the metadata of a stored file. The binary content is an
// opaque blob keyed by the file ID and lives outside this model.
type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	FolderID   string    `json:"folder_id"`
	TagIDs     []string  `json:"tag_ids"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Folder is a node in the rooted folder tree. ParentID is empty only for
// the single root folder.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is a named label with a display color, independent of any folder.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     Color     `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// ShareRecord is a time-limited capability granting access to one file.
// The ID doubles as the unguessable link token.
type ShareRecord struct {
	ID         string     `json:"id"`
	FileID     string     `json:"file_id"`
	Permission Permission `json:"permission"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// ActiveAt reports whether the share is still valid at the given time.
func (s ShareRecord) ActiveAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Snapshot is a full copy of the store's four collections, each in
// creation order. It is the unit of persistence.
type Snapshot struct {
	Folders []Folder      `json:"folders"`
	Files   []File        `json:"files"`
	Tags    []Tag         `json:"tags"`
	Shares  []ShareRecord `json:"shares"`
}

// BlobStorage stores file content keyed by file ID. Content is opaque to
// the vault; only the metadata lives in the store.
type BlobStorage interface {
	Save(id string, content io.Reader) (int64, error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
	Exists(id string) bool
}

// Notifier receives a human-readable summary after successful mutations.
// Calls are fire-and-forget; the return value is never consumed.
type Notifier interface {
	Notify(summary string)
}

// Archive persists the store's collections so they survive restarts.
// Implementations must keep foreign keys (folder_id, tag_ids, parent_id,
// file_id) and the root folder's identity intact across a Load.
type Archive interface {
	Load() (*Snapshot, error)
	SaveFolder(f Folder) error
	SaveFile(f File) error
	SaveTag(t Tag) error
	SaveShare(s ShareRecord) error
	DeleteFile(id string) error
	Close() error
}
