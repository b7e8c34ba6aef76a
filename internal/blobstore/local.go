package blobstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalStore trzyma bloby na dysku, rozsypane w podkatalogi po znakach klucza.
// Podpisane linki wskazują na własny endpoint /blobs/{key} i są weryfikowane
// HMAC-em, żeby pobieranie nie wymagało nagłówka Authorization.
type LocalStore struct {
	basePath   string
	signingKey []byte
	baseURL    string
}

func NewLocalStore(basePath string, signingKey string, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStore{
		basePath:   basePath,
		signingKey: []byte(signingKey),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (ls *LocalStore) getPathFromKey(key string) string {
	pathParts := strings.Split(key, "")
	return filepath.Join(ls.basePath, filepath.Join(pathParts...))
}

func (ls *LocalStore) Put(ctx context.Context, key string, data io.Reader) error {
	filePath := ls.getPathFromKey(key)
	dir := filepath.Dir(filePath)

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	return err
}

func (ls *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath := ls.getPathFromKey(key)

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob with key %s not found: %w", key, err)
		}
		return nil, err
	}

	return file, nil
}

func (ls *LocalStore) Delete(ctx context.Context, key string) error {
	filePath := ls.getPathFromKey(key)

	err := os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

func (ls *LocalStore) SignedURL(ctx context.Context, key string, filename string, expires time.Duration) (string, error) {
	exp := time.Now().Add(expires).Unix()
	sig := ls.sign(key, exp)

	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", sig)
	if filename != "" {
		q.Set("filename", filename)
	}

	return fmt.Sprintf("%s/blobs/%s?%s", ls.baseURL, url.PathEscape(key), q.Encode()), nil
}

// VerifySignature sprawdza podpis i termin ważności linku z /blobs/{key}.
func (ls *LocalStore) VerifySignature(key string, exp int64, sig string) bool {
	if time.Now().Unix() > exp {
		return false
	}
	expected := ls.sign(key, exp)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (ls *LocalStore) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, ls.signingKey)
	fmt.Fprintf(mac, "%s:%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
