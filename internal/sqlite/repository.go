package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/filevault/filevault/internal/vault"
	_ "modernc.org/sqlite"
)

// Repository implements vault.Archive using SQLite. It is a write-through
// mirror of the in-memory store: every successful mutation is upserted,
// and Load reassembles a full snapshot at boot with all references and
// the root folder's identity intact.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at dbPath.
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		mime_type TEXT NOT NULL,
		folder_id TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS file_tags (
		file_id TEXT NOT NULL,
		tag_id TEXT NOT NULL,
		PRIMARY KEY (file_id, tag_id)
	);
	CREATE TABLE IF NOT EXISTS shares (
		id TEXT PRIMARY KEY,
		file_id TEXT NOT NULL,
		permission TEXT NOT NULL,
		issued_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_folders_parent_id ON folders(parent_id);
	CREATE INDEX IF NOT EXISTS idx_files_folder_id ON files(folder_id);
	CREATE INDEX IF NOT EXISTS idx_shares_file_id ON shares(file_id);
	CREATE INDEX IF NOT EXISTS idx_shares_expires_at ON shares(expires_at);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// SaveFolder upserts a folder record.
func (r *Repository) SaveFolder(f vault.Folder) error {
	query := `
	INSERT INTO folders (id, name, parent_id, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name = excluded.name, parent_id = excluded.parent_id
	`
	var parentID sql.NullString
	if f.ParentID != "" {
		parentID = sql.NullString{String: f.ParentID, Valid: true}
	}
	if _, err := r.db.Exec(query, f.ID, f.Name, parentID, f.CreatedAt); err != nil {
		return fmt.Errorf("failed to save folder record: %w", err)
	}
	return nil
}

// SaveFile upserts a file record and rewrites its tag links.
func (r *Repository) SaveFile(f vault.File) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO files (id, name, size, mime_type, folder_id, uploaded_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name = excluded.name, folder_id = excluded.folder_id
	`
	if _, err := tx.Exec(query, f.ID, f.Name, f.Size, f.MimeType, f.FolderID, f.UploadedAt); err != nil {
		return fmt.Errorf("failed to save file record: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM file_tags WHERE file_id = ?`, f.ID); err != nil {
		return fmt.Errorf("failed to clear file tags: %w", err)
	}
	for _, tagID := range f.TagIDs {
		if _, err := tx.Exec(`INSERT INTO file_tags (file_id, tag_id) VALUES (?, ?)`, f.ID, tagID); err != nil {
			return fmt.Errorf("failed to save file tag: %w", err)
		}
	}

	return tx.Commit()
}

// SaveTag upserts a tag record.
func (r *Repository) SaveTag(t vault.Tag) error {
	query := `
	INSERT INTO tags (id, name, color, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color
	`
	if _, err := r.db.Exec(query, t.ID, t.Name, string(t.Color), t.CreatedAt); err != nil {
		return fmt.Errorf("failed to save tag record: %w", err)
	}
	return nil
}

// SaveShare upserts a share record.
func (r *Repository) SaveShare(s vault.ShareRecord) error {
	query := `
	INSERT INTO shares (id, file_id, permission, issued_at, expires_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET expires_at = excluded.expires_at
	`
	if _, err := r.db.Exec(query, s.ID, s.FileID, string(s.Permission), s.IssuedAt, s.ExpiresAt); err != nil {
		return fmt.Errorf("failed to save share record: %w", err)
	}
	return nil
}

// DeleteFile removes a file record together with its tag links and shares.
func (r *Repository) DeleteFile(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM file_tags WHERE file_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete file tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM shares WHERE file_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete file shares: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return tx.Commit()
}

// Load reads every collection back in creation order. An empty database
// yields a snapshot with no folders; the caller then starts fresh.
func (r *Repository) Load() (*vault.Snapshot, error) {
	snap := &vault.Snapshot{}

	rows, err := r.db.Query(`SELECT id, name, parent_id, created_at FROM folders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f vault.Folder
		var parentID sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &parentID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", err)
		}
		if parentID.Valid {
			f.ParentID = parentID.String
		}
		snap.Folders = append(snap.Folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folder rows: %w", err)
	}

	snap.Tags, err = r.loadTags()
	if err != nil {
		return nil, err
	}
	snap.Files, err = r.loadFiles()
	if err != nil {
		return nil, err
	}
	snap.Shares, err = r.loadShares()
	if err != nil {
		return nil, err
	}

	return snap, nil
}

func (r *Repository) loadTags() ([]vault.Tag, error) {
	rows, err := r.db.Query(`SELECT id, name, color, created_at FROM tags ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []vault.Tag
	for rows.Next() {
		var t vault.Tag
		var color string
		if err := rows.Scan(&t.ID, &t.Name, &color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		t.Color = vault.Color(color)
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}
	return tags, nil
}

func (r *Repository) loadFiles() ([]vault.File, error) {
	tagsByFile := make(map[string][]string)
	tagRows, err := r.db.Query(`SELECT file_id, tag_id FROM file_tags ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query file tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var fileID, tagID string
		if err := tagRows.Scan(&fileID, &tagID); err != nil {
			return nil, fmt.Errorf("failed to scan file tag row: %w", err)
		}
		tagsByFile[fileID] = append(tagsByFile[fileID], tagID)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file tag rows: %w", err)
	}

	rows, err := r.db.Query(`SELECT id, name, size, mime_type, folder_id, uploaded_at FROM files ORDER BY uploaded_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []vault.File
	for rows.Next() {
		var f vault.File
		if err := rows.Scan(&f.ID, &f.Name, &f.Size, &f.MimeType, &f.FolderID, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		f.TagIDs = tagsByFile[f.ID]
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file rows: %w", err)
	}
	return files, nil
}

func (r *Repository) loadShares() ([]vault.ShareRecord, error) {
	rows, err := r.db.Query(`SELECT id, file_id, permission, issued_at, expires_at FROM shares ORDER BY issued_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shares: %w", err)
	}
	defer rows.Close()

	var shares []vault.ShareRecord
	for rows.Next() {
		var s vault.ShareRecord
		var permission string
		if err := rows.Scan(&s.ID, &s.FileID, &permission, &s.IssuedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan share row: %w", err)
		}
		s.Permission = vault.Permission(permission)
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share rows: %w", err)
	}
	return shares, nil
}
