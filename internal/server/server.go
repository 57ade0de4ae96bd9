package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/filevault/filevault/internal/activity"
	"github.com/filevault/filevault/internal/fs"
	"github.com/filevault/filevault/internal/sqlite"
	"github.com/filevault/filevault/internal/vault"
)

type Config struct {
	Addr         string   `env:"FILE_VAULT_ADDR" envDefault:":8080"`
	AdminToken   string   `env:"FILE_VAULT_ADMIN_TOKEN,required"`
	DataDir      string   `env:"FILE_VAULT_DATA_DIR,required"`
	DBPath       string   `env:"FILE_VAULT_DB_PATH"`
	MaxSize      int64    `env:"FILE_VAULT_MAX_SIZE" envDefault:"104857600"`
	CORSOrigins  []string `env:"FILE_VAULT_CORS_ORIGINS" envDefault:"*"`
	ActivitySize int      `env:"FILE_VAULT_ACTIVITY_SIZE" envDefault:"256"`
}

// New assembles the vault service and returns an http.Server ready to
// listen. An empty DBPath runs the vault in memory only.
func New(cfg *Config) (*http.Server, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	store, archive, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	feed := activity.NewLog(cfg.ActivitySize)
	opts := []vault.ServiceOption{vault.WithNotifier(feed)}
	if archive != nil {
		opts = append(opts, vault.WithArchive(archive))
	}
	svc := vault.NewService(store, fs.NewStorage(cfg.DataDir), opts...)

	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/healthz", healthz)

	r.Route("/v1", func(r chi.Router) {
		// Share links are the public surface; everything else needs
		// the admin token.
		r.Get("/shared/{token}", sharedDownload(svc))

		r.Group(func(r chi.Router) {
			r.Use(auth(cfg.AdminToken))

			r.Route("/files", func(r chi.Router) {
				r.Post("/", uploadFile(cfg, svc))
				r.Get("/", listFiles(svc))
				r.Get("/{id}", getFile(svc))
				r.Delete("/{id}", deleteFile(svc))
				r.Get("/{id}/download", downloadFile(svc))
				r.Post("/{id}/move", moveFile(svc))
				r.Post("/{id}/tags/{tagID}", toggleFileTag(svc))
				r.Get("/{id}/tags", listFileTags(svc))
				r.Post("/{id}/shares", shareFile(svc))
				r.Get("/{id}/shares", listActiveShares(svc))
			})

			r.Route("/folders", func(r chi.Router) {
				r.Post("/", createFolder(svc))
				r.Get("/", listFolders(svc))
				r.Get("/{id}", getFolder(svc))
				r.Get("/{id}/children", listChildren(svc))
				r.Get("/{id}/descendants", listDescendants(svc))
				r.Get("/{id}/path", folderPath(svc))
				r.Get("/{id}/files", listFolderFiles(svc))
			})

			r.Route("/tags", func(r chi.Router) {
				r.Post("/", createTag(svc))
				r.Get("/", listTags(svc))
			})

			r.Delete("/shares/{token}", revokeShare(svc))
			r.Get("/activity", listActivity(feed))
		})
	})

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}, nil
}

func openStore(cfg *Config) (*vault.Store, vault.Archive, error) {
	if cfg.DBPath == "" {
		return vault.NewStore(), nil, nil
	}

	archive, err := sqlite.NewRepository(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize archive: %w", err)
	}

	snap, err := archive.Load()
	if err != nil {
		archive.Close()
		return nil, nil, fmt.Errorf("failed to load archive: %w", err)
	}

	if len(snap.Folders) == 0 {
		store := vault.NewStore()
		if err := archive.SaveFolder(store.Root()); err != nil {
			archive.Close()
			return nil, nil, fmt.Errorf("failed to persist root folder: %w", err)
		}
		return store, archive, nil
	}

	store, err := vault.NewStoreFromSnapshot(snap)
	if err != nil {
		archive.Close()
		return nil, nil, fmt.Errorf("failed to restore store: %w", err)
	}
	return store, archive, nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
