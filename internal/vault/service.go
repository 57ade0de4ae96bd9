package vault

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// Service coordinates the store with its collaborators: blob storage for
// file content, an optional archive for persistence and an optional
// notifier for activity summaries. Handlers mutate the vault exclusively
// through it.
type Service struct {
	store    *Store
	blobs    BlobStorage
	archive  Archive
	notifier Notifier
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithArchive enables write-through persistence of every mutation.
func WithArchive(a Archive) ServiceOption {
	return func(s *Service) { s.archive = a }
}

// WithNotifier routes post-mutation summaries to n.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a service around the given store and blob storage.
func NewService(store *Store, blobs BlobStorage, opts ...ServiceOption) *Service {
	s := &Service{store: store, blobs: blobs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store for read-only queries.
func (s *Service) Store() *Store {
	return s.store
}

// UploadRequest carries one incoming file.
type UploadRequest struct {
	Name     string
	MimeType string
	FolderID string
	Content  io.Reader
}

// Upload reads the content, registers the file metadata and stores the
// blob under the file id. If the blob write fails the metadata record is
// rolled back so the two never diverge.
func (s *Service) Upload(req *UploadRequest) (File, error) {
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return File{}, fmt.Errorf("failed to read upload content: %w", err)
	}

	info := FileInfo{
		Name:     req.Name,
		Size:     int64(len(data)),
		MimeType: req.MimeType,
	}
	file, err := s.store.AddFile(info, req.FolderID)
	if err != nil {
		return File{}, err
	}

	if _, err := s.blobs.Save(file.ID, bytes.NewReader(data)); err != nil {
		s.store.DeleteFile(file.ID)
		return File{}, fmt.Errorf("failed to save file content: %w", err)
	}

	s.persistFile(file)
	s.notify("Uploaded %s (%s)", file.Name, humanize.Bytes(uint64(file.Size)))
	return file, nil
}

// Download returns the file metadata and a reader over its content. It
// never mutates the record.
func (s *Service) Download(fileID string) (File, io.ReadCloser, error) {
	file, err := s.store.File(fileID)
	if err != nil {
		return File{}, nil, err
	}
	content, err := s.blobs.Open(file.ID)
	if err != nil {
		return File{}, nil, fmt.Errorf("failed to open file content: %w", err)
	}
	return file, content, nil
}

// SharedDownload resolves a share token and, if the share is still active
// at the given time, returns the shared file and its content.
func (s *Service) SharedDownload(token string, now time.Time) (ShareRecord, File, io.ReadCloser, error) {
	share, err := s.store.Share(token)
	if err != nil {
		return ShareRecord{}, File{}, nil, err
	}
	if !share.ActiveAt(now) {
		return ShareRecord{}, File{}, nil, fmt.Errorf("%w: share %q has expired", ErrNotFound, token)
	}
	file, content, err := s.Download(share.FileID)
	if err != nil {
		return ShareRecord{}, File{}, nil, err
	}
	return share, file, content, nil
}

// CreateFolder adds a folder under the given parent.
func (s *Service) CreateFolder(name, parentID string) (Folder, error) {
	folder, err := s.store.AddFolder(name, parentID)
	if err != nil {
		return Folder{}, err
	}
	s.persistFolder(folder)
	s.notify("Created folder %s", folder.Name)
	return folder, nil
}

// CreateTag adds a tag with the given palette color.
func (s *Service) CreateTag(name string, color Color) (Tag, error) {
	tag, err := s.store.AddTag(name, color)
	if err != nil {
		return Tag{}, err
	}
	if s.archive != nil {
		if err := s.archive.SaveTag(tag); err != nil {
			slog.Error("Failed to persist tag", "tag_id", tag.ID, "error", err)
		}
	}
	return tag, nil
}

// MoveFile places the file in the target folder.
func (s *Service) MoveFile(fileID, targetFolderID string) (File, error) {
	file, err := s.store.MoveFile(fileID, targetFolderID)
	if err != nil {
		return File{}, err
	}
	s.persistFile(file)
	if folder, err := s.store.Folder(file.FolderID); err == nil {
		s.notify("Moved %s to %s", file.Name, folder.Name)
	}
	return file, nil
}

// ToggleFileTag flips the tag's presence on the file.
func (s *Service) ToggleFileTag(fileID, tagID string) (File, error) {
	file, err := s.store.ToggleFileTag(fileID, tagID)
	if err != nil {
		return File{}, err
	}
	s.persistFile(file)
	return file, nil
}

// ShareFile issues an expiring share link for the file.
func (s *Service) ShareFile(fileID string, expiryDays int, permission Permission) (ShareRecord, error) {
	share, err := s.store.ShareFile(fileID, expiryDays, permission)
	if err != nil {
		return ShareRecord{}, err
	}
	s.persistShare(share)
	if file, err := s.store.File(fileID); err == nil {
		s.notify("Shared %s (%s access, expires %s)",
			file.Name, share.Permission, share.ExpiresAt.Format("2006-01-02"))
	}
	return share, nil
}

// RevokeShare expires the share immediately.
func (s *Service) RevokeShare(token string) (ShareRecord, error) {
	share, err := s.store.RevokeShare(token)
	if err != nil {
		return ShareRecord{}, err
	}
	s.persistShare(share)
	return share, nil
}

// DeleteFile removes the file's metadata, shares and content.
func (s *Service) DeleteFile(fileID string) error {
	file, err := s.store.DeleteFile(fileID)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(file.ID); err != nil {
		slog.Error("Failed to delete file content", "file_id", file.ID, "error", err)
	}
	if s.archive != nil {
		if err := s.archive.DeleteFile(file.ID); err != nil {
			slog.Error("Failed to delete archived file", "file_id", file.ID, "error", err)
		}
	}
	return nil
}

// The in-memory store stays the source of truth; archive failures are
// logged and do not fail the mutation.
func (s *Service) persistFile(f File) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveFile(f); err != nil {
		slog.Error("Failed to persist file", "file_id", f.ID, "error", err)
	}
}

func (s *Service) persistFolder(f Folder) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveFolder(f); err != nil {
		slog.Error("Failed to persist folder", "folder_id", f.ID, "error", err)
	}
}

func (s *Service) persistShare(sh ShareRecord) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveShare(sh); err != nil {
		slog.Error("Failed to persist share", "share_id", sh.ID, "error", err)
	}
}

func (s *Service) notify(format string, args ...any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(fmt.Sprintf(format, args...))
}
