package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"chmura-plikow/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// Funkcja pomocnicza do tworzenia folderów w testach API
func createTestFolderAPI(t *testing.T, name string, parentID *string) *models.Entry {
	entry, err := testServer.files.CreateFolder(context.Background(), testUserClaims.UserID, parentID, name)
	require.NoError(t, err)
	return entry
}

// Funkcja pomocnicza wgrywająca plik przez handler multipart
func uploadTestFileAPI(t *testing.T, filename string, content string, parentID *string) UploadResponse {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	part.Write([]byte(content))
	if parentID != nil {
		writer.WriteField("parent_id", *parentID)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/api/v1/entries/file", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.UploadFileHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, "upload failed: %s", rr.Body.String())

	var resp struct {
		Entry     models.Entry `json:"entry"`
		UsedBytes int64        `json:"used_bytes"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return UploadResponse{Entry: resp.Entry, UsedBytes: resp.UsedBytes}
}

func TestAPI_CreateFolder_Success(t *testing.T) {
	// Arrange
	payload := CreateFolderRequest{Name: "Nowy_Folder_Sukces"} // Unikalna nazwa dla tego testu
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/entries/folder", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	// Act
	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, req)

	// Assert
	require.Equal(t, http.StatusCreated, rr.Code)
	var createdEntry models.Entry
	err := json.Unmarshal(rr.Body.Bytes(), &createdEntry)
	require.NoError(t, err)
	require.Equal(t, "Nowy_Folder_Sukces", createdEntry.Name)
	require.Equal(t, "/Nowy_Folder_Sukces", createdEntry.Path)
}

func TestAPI_CreateFolder_EmptyName(t *testing.T) {
	payload := CreateFolderRequest{Name: "  "}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/entries/folder", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_CreateFolder_NameConflict(t *testing.T) {
	folderName := "Folder_Konfliktowy_Final"
	createTestFolderAPI(t, folderName, nil)

	payload := CreateFolderRequest{Name: folderName}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/entries/folder", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)

	var count int
	err := testServer.store.GetPool().QueryRow(context.Background(),
		"SELECT count(*) FROM entries WHERE name=$1 AND owner_id=$2 AND parent_id IS NULL AND deleted_at IS NULL",
		folderName, testUserClaims.UserID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "The number of entries with this name should not increase")
}

func TestAPI_CreateFolder_ParentNotFound(t *testing.T) {
	missingParent := "AAAAAAAAAAAAAAAAAAAAA" // poprawny format, nieistniejący wpis
	payload := CreateFolderRequest{Name: "Sierota", ParentID: &missingParent}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/entries/folder", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListEntriesHandler(t *testing.T) {
	parentFolder := createTestFolderAPI(t, "Parent Folder", nil)
	uploaded := uploadTestFileAPI(t, "Child File.txt", "zawartość", &parentFolder.ID)
	childEntry := uploaded.Entry.(models.Entry)

	t.Run("should list root directory", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/entries", nil)
		rr := httptest.NewRecorder()

		req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
		http.HandlerFunc(testServer.ListEntriesHandler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var entries []models.Entry
		err := json.Unmarshal(rr.Body.Bytes(), &entries)
		require.NoError(t, err)

		found := false
		for _, entry := range entries {
			if entry.ID == parentFolder.ID {
				found = true
				break
			}
		}
		require.True(t, found, "Expected to find the created parent folder in the root listing")
	})

	t.Run("should list subdirectory content", func(t *testing.T) {
		reqURL := fmt.Sprintf("/api/v1/entries?parent_id=%s", parentFolder.ID)
		req := httptest.NewRequest("GET", reqURL, nil)
		rr := httptest.NewRecorder()

		req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
		http.HandlerFunc(testServer.ListEntriesHandler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var entries []models.Entry
		err := json.Unmarshal(rr.Body.Bytes(), &entries)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, childEntry.Name, entries[0].Name)
	})

	t.Run("should return 404 for missing parent", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/entries?parent_id=BBBBBBBBBBBBBBBBBBBBB", nil)
		rr := httptest.NewRecorder()

		req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
		http.HandlerFunc(testServer.ListEntriesHandler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestSearchEntriesHandler(t *testing.T) {
	createTestFolderAPI(t, "Raporty Kwartalne", nil)

	req := httptest.NewRequest("GET", "/api/v1/entries/search?q="+url.QueryEscape("kwartal"), nil)
	rr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.SearchEntriesHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var entries []models.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "Raporty Kwartalne", entries[0].Name)
}

func TestUploadFileHandler(t *testing.T) {
	fileContent := "to jest zawartość pliku"
	resp := uploadTestFileAPI(t, "testfile.txt", fileContent, nil)
	uploadedEntry := resp.Entry.(models.Entry)

	require.Equal(t, "testfile.txt", uploadedEntry.Name)
	require.Equal(t, int64(len(fileContent)), uploadedEntry.FileSize())
	require.GreaterOrEqual(t, resp.UsedBytes, int64(len(fileContent)))

	blob, err := testServer.localBlobs.Open(context.Background(), uploadedEntry.ID)
	require.NoError(t, err, "Blob should exist in storage after upload")
	blob.Close()
}

func TestDownloadURLHandler(t *testing.T) {
	fileContent := "tajna zawartość"
	resp := uploadTestFileAPI(t, "plik_do_pobrania.txt", fileContent, nil)
	fileEntry := resp.Entry.(models.Entry)

	reqURL := fmt.Sprintf("/api/v1/entries/%s/url", fileEntry.ID)
	req := httptest.NewRequest("GET", reqURL, nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr := httptest.NewRecorder()

	router := chi.NewRouter()
	router.With(testServer.AuthMiddleware).Get("/api/v1/entries/{entryId}/url", testServer.DownloadURLHandler)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var urlResp DownloadURLResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &urlResp))

	// Podpisany link powinien wydać treść bez nagłówka Authorization
	signed, err := url.Parse(urlResp.URL)
	require.NoError(t, err)

	blobReq := httptest.NewRequest("GET", signed.Path+"?"+signed.RawQuery, nil)
	blobRR := httptest.NewRecorder()

	blobRouter := chi.NewRouter()
	blobRouter.Get("/blobs/{key}", testServer.ServeBlobHandler)
	blobRouter.ServeHTTP(blobRR, blobReq)

	require.Equal(t, http.StatusOK, blobRR.Code)
	require.Equal(t, fileContent, blobRR.Body.String())
	require.Contains(t, blobRR.Header().Get("Content-Disposition"), "plik_do_pobrania.txt")
}

func TestDeleteEntryHandler(t *testing.T) {
	resp := uploadTestFileAPI(t, "do_kosza.txt", "do usunięcia", nil)
	fileEntry := resp.Entry.(models.Entry)

	reqURL := fmt.Sprintf("/api/v1/entries/%s", fileEntry.ID)
	req := httptest.NewRequest("DELETE", reqURL, nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr := httptest.NewRecorder()

	router := chi.NewRouter()
	router.With(testServer.AuthMiddleware).Delete("/api/v1/entries/{entryId}", testServer.DeleteEntryHandler)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var delResp DeleteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &delResp))
	require.GreaterOrEqual(t, delResp.UsedBytes, int64(0))

	var deletedAt *time.Time
	err := testServer.store.GetPool().QueryRow(context.Background(),
		"SELECT deleted_at FROM entries WHERE id=$1", fileEntry.ID).Scan(&deletedAt)
	require.NoError(t, err)
	require.NotNil(t, deletedAt)

	// Ponowne usunięcie tego samego wpisu to 404
	rr2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("DELETE", reqURL, nil)
	req2.Header.Set("Authorization", "Bearer "+testUserToken)
	router.ServeHTTP(rr2, req2)
	require.Equal(t, http.StatusNotFound, rr2.Code)
}

func TestDeleteEntryHandler_FolderCascade(t *testing.T) {
	folder := createTestFolderAPI(t, "Kasowany Folder", nil)
	resp := uploadTestFileAPI(t, "w_srodku.txt", "zawartość w środku", &folder.ID)
	childEntry := resp.Entry.(models.Entry)

	reqURL := fmt.Sprintf("/api/v1/entries/%s", folder.ID)
	req := httptest.NewRequest("DELETE", reqURL, nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr := httptest.NewRecorder()

	router := chi.NewRouter()
	router.With(testServer.AuthMiddleware).Delete("/api/v1/entries/{entryId}", testServer.DeleteEntryHandler)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var childDeletedAt *time.Time
	err := testServer.store.GetPool().QueryRow(context.Background(),
		"SELECT deleted_at FROM entries WHERE id=$1", childEntry.ID).Scan(&childDeletedAt)
	require.NoError(t, err)
	require.NotNil(t, childDeletedAt, "Child entry should be soft-deleted together with the folder")
}
