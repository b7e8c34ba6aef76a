package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ServeBlobHandler wydaje treść blobu spod podpisanego linku wystawionego
// przez lokalny magazyn. Podpis HMAC w query zastępuje nagłówek Authorization,
// więc link działa w przeglądarce bez tokenu, do czasu wygaśnięcia.
// Przy backendzie S3 trasa nie jest montowana; linki wskazują wprost na S3.
func (s *Server) ServeBlobHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Blob key is required", http.StatusBadRequest)
		return
	}

	expStr := r.URL.Query().Get("exp")
	sig := r.URL.Query().Get("sig")
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || sig == "" {
		http.Error(w, "Missing or invalid signature", http.StatusForbidden)
		return
	}

	if !s.localBlobs.VerifySignature(key, exp, sig) {
		http.Error(w, "Invalid or expired link", http.StatusForbidden)
		return
	}

	blob, err := s.localBlobs.Open(r.Context(), key)
	if err != nil {
		http.Error(w, "Blob not found", http.StatusNotFound)
		return
	}
	defer blob.Close()

	filename := r.URL.Query().Get("filename")
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.Header().Set("Content-Type", "application/octet-stream")

	io.Copy(w, blob)
}
