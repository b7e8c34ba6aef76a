package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"chmura-plikow/internal/files"

	"github.com/go-chi/chi/v5"
)

// writeFileError tłumaczy błędy domenowe serwisu plików na kody HTTP.
// Wszystko spoza taksonomii to 500 z wpisem w logu.
func (s *Server) writeFileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, files.ErrNotFound):
		http.Error(w, "Entry not found", http.StatusNotFound)
	case errors.Is(err, files.ErrForbidden):
		http.Error(w, "You do not have permission to access this entry", http.StatusForbidden)
	case errors.Is(err, files.ErrConflict):
		http.Error(w, "An entry with the same name already exists in this folder", http.StatusConflict)
	case errors.Is(err, files.ErrInvalidKind):
		http.Error(w, "Operation not valid for this entry type", http.StatusBadRequest)
	case errors.Is(err, files.ErrInvalidName):
		http.Error(w, "Invalid entry name", http.StatusBadRequest)
	case errors.Is(err, files.ErrQuotaExceeded):
		http.Error(w, "Storage quota exceeded", http.StatusInsufficientStorage)
	default:
		s.logger.Errorw("file operation failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type CreateFolderRequest struct {
	Name     string  `json:"name" example:"Dokumenty"`
	ParentID *string `json:"parent_id" example:"V1StGXR8_Z5jdHi6B-myT"`
}

// @Summary      Create a folder
// @Description  Creates a folder under the given parent (or at the root when parent_id is omitted).
// @Tags         entries
// @Accept       json
// @Produce      json
// @Param        createFolderRequest  body      CreateFolderRequest  true  "Folder data"
// @Success      201  {object}  models.Entry
// @Failure      400  {string}  string "Invalid request body or name"
// @Failure      404  {string}  string "Parent folder not found"
// @Failure      409  {string}  string "Name already taken in this folder"
// @Security     BearerAuth
// @Router       /entries/folder [post]
func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ParentID != nil && len(*req.ParentID) != 21 {
		http.Error(w, "Invalid ParentID format", http.StatusBadRequest)
		return
	}

	entry, err := s.files.CreateFolder(r.Context(), claims.UserID, req.ParentID, strings.TrimSpace(req.Name))
	if err != nil {
		s.writeFileError(w, err)
		return
	}

	s.publishEvent(r, claims.UserID, "entry_created", entry)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

// @Summary      List entries
// @Description  Lists non-deleted entries of a folder (or of the root when parent_id is omitted). Folders come before files, both sorted by name.
// @Tags         entries
// @Produce      json
// @Param        parent_id  query     string  false  "Parent folder ID"
// @Param        limit      query     int     false  "Page size (max 500)"
// @Param        offset     query     int     false  "Page offset"
// @Success      200  {array}   models.Entry
// @Failure      404  {string}  string "Parent folder not found"
// @Security     BearerAuth
// @Router       /entries [get]
func (s *Server) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	parentIDStr := r.URL.Query().Get("parent_id")
	var parentID *string
	if parentIDStr != "" {
		parentID = &parentIDStr
	}

	limit, offset := parsePagination(r)

	entries, err := s.files.List(r.Context(), claims.UserID, parentID, limit, offset)
	if err != nil {
		s.writeFileError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// @Summary      Search entries
// @Description  Case-insensitive substring search over entry names of the current user.
// @Tags         entries
// @Produce      json
// @Param        q       query     string  true   "Search phrase"
// @Param        limit   query     int     false  "Page size (max 500)"
// @Param        offset  query     int     false  "Page offset"
// @Success      200  {array}   models.Entry
// @Failure      400  {string}  string "Missing search phrase"
// @Security     BearerAuth
// @Router       /entries/search [get]
func (s *Server) SearchEntriesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "Search phrase 'q' is required", http.StatusBadRequest)
		return
	}

	limit, offset := parsePagination(r)

	entries, err := s.files.Search(r.Context(), claims.UserID, query, limit, offset)
	if err != nil {
		s.writeFileError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

type UploadResponse struct {
	Entry     interface{} `json:"entry"`
	UsedBytes int64       `json:"used_bytes" example:"1048576"`
}

// @Summary      Upload a file
// @Description  Uploads a file (multipart field "file") into the given folder. The declared size is charged against the 15 GiB per-user quota before content is stored.
// @Tags         entries
// @Accept       multipart/form-data
// @Produce      json
// @Param        file       formData  file    true   "File content"
// @Param        parent_id  formData  string  false  "Parent folder ID"
// @Success      201  {object}  UploadResponse
// @Failure      400  {string}  string "Invalid form or name"
// @Failure      404  {string}  string "Parent folder not found"
// @Failure      409  {string}  string "Name already taken in this folder"
// @Failure      507  {string}  string "Storage quota exceeded"
// @Security     BearerAuth
// @Router       /entries/file [post]
func (s *Server) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<30)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing multipart form", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error retrieving the file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	parentIDStr := r.FormValue("parent_id")
	var parentID *string
	if parentIDStr != "" {
		if len(parentIDStr) != 21 {
			http.Error(w, "Invalid ParentID format", http.StatusBadRequest)
			return
		}
		parentID = &parentIDStr
	}

	entry, usedBytes, err := s.files.UploadFile(r.Context(), files.UploadParams{
		OwnerID:      claims.UserID,
		ParentID:     parentID,
		Name:         handler.Filename,
		SizeBytes:    handler.Size,
		MimeType:     handler.Header.Get("Content-Type"),
		OriginalName: handler.Filename,
		Data:         file,
	})
	if err != nil {
		s.writeFileError(w, err)
		return
	}

	s.publishEvent(r, claims.UserID, "entry_created", entry)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(UploadResponse{Entry: entry, UsedBytes: usedBytes})
}

type DownloadURLResponse struct {
	URL string `json:"url" example:"https://files.example.com/blobs/V1StGXR8_Z5jdHi6B-myT?exp=1700000000&sig=..."`
}

// @Summary      Get a download link
// @Description  Returns a signed, expiring URL for the file content. Folders have no content.
// @Tags         entries
// @Produce      json
// @Param        entryId  path      string  true  "Entry ID"
// @Success      200  {object}  DownloadURLResponse
// @Failure      400  {string}  string "Entry is a folder"
// @Failure      403  {string}  string "Entry belongs to another user"
// @Failure      404  {string}  string "Entry not found"
// @Security     BearerAuth
// @Router       /entries/{entryId}/url [get]
func (s *Server) DownloadURLHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	entryID := chi.URLParam(r, "entryId")
	if entryID == "" {
		http.Error(w, "Entry ID is required", http.StatusBadRequest)
		return
	}

	url, err := s.files.DownloadURL(r.Context(), claims.UserID, entryID)
	if err != nil {
		s.writeFileError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DownloadURLResponse{URL: url})
}

type DeleteResponse struct {
	UsedBytes int64 `json:"used_bytes" example:"524288"`
}

// @Summary      Delete an entry
// @Description  Soft-deletes an entry; for a folder the whole subtree goes with it. Returns the storage usage after the freed bytes were returned to the quota.
// @Tags         entries
// @Produce      json
// @Param        entryId  path      string  true  "Entry ID"
// @Success      200  {object}  DeleteResponse
// @Failure      403  {string}  string "Entry belongs to another user"
// @Failure      404  {string}  string "Entry not found or already deleted"
// @Security     BearerAuth
// @Router       /entries/{entryId} [delete]
func (s *Server) DeleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	entryID := chi.URLParam(r, "entryId")
	if entryID == "" {
		http.Error(w, "Entry ID is required", http.StatusBadRequest)
		return
	}

	usedBytes, err := s.files.Delete(r.Context(), claims.UserID, entryID)
	if err != nil {
		s.writeFileError(w, err)
		return
	}

	s.publishEvent(r, claims.UserID, "entry_deleted", map[string]string{"id": entryID})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DeleteResponse{UsedBytes: usedBytes})
}
