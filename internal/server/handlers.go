package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/filevault/filevault/internal/activity"
	"github.com/filevault/filevault/internal/vault"
)

var validate = validator.New()

func uploadFile(cfg *Config, svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxSize)
		if err := r.ParseMultipartForm(cfg.MaxSize); err != nil {
			http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		result, err := svc.Upload(&vault.UploadRequest{
			Name:     header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			FolderID: r.FormValue("folder_id"),
			Content:  file,
		})
		if err != nil {
			slog.Error("Upload failed", "error", err, "filename", header.Filename)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, result)
	}
}

func listFiles(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Store().Files())
	}
}

func getFile(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := svc.Store().File(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, file)
	}
}

func deleteFile(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteFile(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func downloadFile(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, content, err := svc.Download(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		defer content.Close()

		serveContent(w, file, content)
	}
}

type moveFileRequest struct {
	FolderID string `json:"folder_id" validate:"required"`
}

func moveFile(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveFileRequest
		if !decode(w, r, &req) {
			return
		}

		file, err := svc.MoveFile(chi.URLParam(r, "id"), req.FolderID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, file)
	}
}

func toggleFileTag(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := svc.ToggleFileTag(chi.URLParam(r, "id"), chi.URLParam(r, "tagID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, file)
	}
}

func listFileTags(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := svc.Store().TagsOnFile(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

type shareFileRequest struct {
	ExpiryDays int    `json:"expiry_days" validate:"required,gt=0"`
	Permission string `json:"permission" validate:"required,oneof=view edit"`
}

type shareResponse struct {
	vault.ShareRecord
	URL string `json:"url"`
}

func shareFile(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shareFileRequest
		if !decode(w, r, &req) {
			return
		}

		share, err := svc.ShareFile(chi.URLParam(r, "id"), req.ExpiryDays, vault.Permission(req.Permission))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, shareResponse{
			ShareRecord: share,
			URL:         "/v1/shared/" + share.ID,
		})
	}
}

func listActiveShares(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shares, err := svc.Store().ActiveSharesFor(chi.URLParam(r, "id"), time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shares)
	}
}

func revokeShare(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.RevokeShare(chi.URLParam(r, "token")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func sharedDownload(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		_, file, content, err := svc.SharedDownload(token, time.Now())
		if err != nil {
			slog.Info("Shared download rejected", "token", token, "error", err)
			http.Error(w, "Share link not found or expired", http.StatusNotFound)
			return
		}
		defer content.Close()

		serveContent(w, file, content)
	}
}

type createFolderRequest struct {
	Name     string `json:"name" validate:"required"`
	ParentID string `json:"parent_id"`
}

func createFolder(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFolderRequest
		if !decode(w, r, &req) {
			return
		}

		folder, err := svc.CreateFolder(req.Name, req.ParentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, folder)
	}
}

func listFolders(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Store().Folders())
	}
}

func getFolder(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder, err := svc.Store().Folder(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, folder)
	}
}

func listChildren(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		children, err := svc.Store().ChildrenOf(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, children)
	}
}

func listDescendants(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := svc.Store().DescendantsOf(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ids)
	}
}

func folderPath(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := svc.Store().PathTo(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, path)
	}
}

func listFolderFiles(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := svc.Store().FilesInFolder(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, files)
	}
}

type createTagRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required,oneof=blue red green yellow purple pink indigo"`
}

func createTag(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTagRequest
		if !decode(w, r, &req) {
			return
		}

		tag, err := svc.CreateTag(req.Name, vault.Color(req.Color))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tag)
	}
}

func listTags(svc *vault.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Store().Tags())
	}
}

func listActivity(feed *activity.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, feed.Recent(limit))
	}
}

// decode unmarshals and validates a JSON request body, writing a 400 and
// returning false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, vault.ErrInvalidReference), errors.Is(err, vault.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("Request failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func serveContent(w http.ResponseWriter, file vault.File, content io.Reader) {
	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, content)
}
