package files

import (
	"context"
	"errors"
	"io"
	"time"

	"chmura-plikow/internal/blobstore"
	"chmura-plikow/internal/database"
	"chmura-plikow/internal/models"

	"go.uber.org/zap"
)

const signedURLTTL = 15 * time.Minute

// Repository to wycinek magazynu metadanych używany przez serwis plików.
// *database.Store spełnia ten interfejs.
type Repository interface {
	CreateEntry(ctx context.Context, arg database.CreateEntryParams) (*models.Entry, error)
	GetEntry(ctx context.Context, id string) (*models.Entry, error)
	EntryExists(ctx context.Context, id string) (bool, error)
	ListEntriesByParent(ctx context.Context, ownerID int64, parentID *string, limit int, offset int) ([]models.Entry, error)
	SearchEntries(ctx context.Context, ownerID int64, search string, limit int, offset int) ([]models.Entry, error)
	FindEntriesByPathPrefix(ctx context.Context, ownerID int64, prefix string) ([]models.Entry, error)
	SiblingExists(ctx context.Context, ownerID int64, parentID *string, name string, entryType string) (bool, error)
	MarkEntryDeleted(ctx context.Context, id string, ownerID int64, deletedAt time.Time) (bool, error)
	MarkEntriesDeletedByPathPrefix(ctx context.Context, ownerID int64, prefix string, deletedAt time.Time) (int64, error)
	ReserveStorage(ctx context.Context, userID int64, bytes int64) (int64, error)
	ReleaseStorage(ctx context.Context, userID int64, bytes int64) (int64, error)
	GetStorageUsed(ctx context.Context, userID int64) (int64, error)
}

type Service struct {
	repo   Repository
	blobs  blobstore.BlobStore
	logger *zap.SugaredLogger
}

func NewService(repo Repository, blobs blobstore.BlobStore, logger *zap.SugaredLogger) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, ownerID int64, parentID *string, limit int, offset int) ([]models.Entry, error) {
	if parentID != nil {
		if _, err := s.fetchParent(ctx, ownerID, *parentID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListEntriesByParent(ctx, ownerID, parentID, limit, offset)
}

func (s *Service) Search(ctx context.Context, ownerID int64, query string, limit int, offset int) ([]models.Entry, error) {
	return s.repo.SearchEntries(ctx, ownerID, query, limit, offset)
}

func (s *Service) Get(ctx context.Context, ownerID int64, entryID string) (*models.Entry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	if entry.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return entry, nil
}

func (s *Service) CreateFolder(ctx context.Context, ownerID int64, parentID *string, name string) (*models.Entry, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	path, err := s.resolvePath(ctx, ownerID, parentID, name)
	if err != nil {
		return nil, err
	}

	if err := s.checkNameCollision(ctx, ownerID, parentID, name, models.EntryTypeFolder); err != nil {
		return nil, err
	}

	entryID, err := s.generateUniqueID(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.repo.CreateEntry(ctx, database.CreateEntryParams{
		ID:        entryID,
		OwnerID:   ownerID,
		ParentID:  parentID,
		Name:      name,
		EntryType: models.EntryTypeFolder,
		Path:      path,
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	return entry, nil
}

type UploadParams struct {
	OwnerID      int64
	ParentID     *string
	Name         string
	SizeBytes    int64
	MimeType     string
	OriginalName string
	Data         io.Reader
}

// UploadFile wykonuje sagę wgrywania: rezerwacja miejsca, zapis blobu,
// walidacja hierarchii, zapis metadanych. Nie ma transakcji między bazą
// a magazynem blobów, więc kolejność kroków i polityka kompensacji są
// częścią kontraktu: rezerwacja pada PRZED dotknięciem magazynu blobów,
// a błędy domenowe po rezerwacji oddają miejsce i sprzątają blob.
// Awarie I/O po rezerwacji NIE są kompensowane: licznik zostaje zawyżony,
// co jest bezpieczniejszym kierunkiem dryfu niż zaniżenie.
func (s *Service) UploadFile(ctx context.Context, arg UploadParams) (*models.Entry, int64, error) {
	if err := validateName(arg.Name); err != nil {
		return nil, 0, err
	}

	usedBytes, err := s.repo.ReserveStorage(ctx, arg.OwnerID, arg.SizeBytes)
	if err != nil {
		if errors.Is(err, database.ErrQuotaExceeded) {
			return nil, 0, ErrQuotaExceeded
		}
		return nil, 0, err
	}

	entryID, err := s.generateUniqueID(ctx)
	if err != nil {
		return nil, 0, err
	}

	if err := s.blobs.Put(ctx, entryID, arg.Data); err != nil {
		return nil, 0, err
	}

	path, err := s.resolvePath(ctx, arg.OwnerID, arg.ParentID, arg.Name)
	if err != nil {
		if isDomainError(err) {
			s.compensateUpload(ctx, arg.OwnerID, arg.SizeBytes, entryID)
		}
		return nil, 0, err
	}

	if err := s.checkNameCollision(ctx, arg.OwnerID, arg.ParentID, arg.Name, models.EntryTypeFile); err != nil {
		if isDomainError(err) {
			s.compensateUpload(ctx, arg.OwnerID, arg.SizeBytes, entryID)
		}
		return nil, 0, err
	}

	sizeBytes := arg.SizeBytes
	mimeType := arg.MimeType
	originalName := arg.OriginalName
	if originalName == "" {
		originalName = arg.Name
	}
	blobKey := entryID

	entry, err := s.repo.CreateEntry(ctx, database.CreateEntryParams{
		ID:           entryID,
		OwnerID:      arg.OwnerID,
		ParentID:     arg.ParentID,
		Name:         arg.Name,
		EntryType:    models.EntryTypeFile,
		Path:         path,
		SizeBytes:    &sizeBytes,
		MimeType:     &mimeType,
		OriginalName: &originalName,
		BlobKey:      &blobKey,
	})
	if err != nil {
		err = translateRepoError(err)
		if isDomainError(err) {
			s.compensateUpload(ctx, arg.OwnerID, arg.SizeBytes, entryID)
		}
		return nil, 0, err
	}

	return entry, usedBytes, nil
}

// compensateUpload cofa rezerwację i po cichu sprząta osierocony blob.
func (s *Service) compensateUpload(ctx context.Context, ownerID int64, sizeBytes int64, blobKey string) {
	if _, err := s.repo.ReleaseStorage(ctx, ownerID, sizeBytes); err != nil {
		s.logger.Errorw("failed to release reserved storage after aborted upload",
			"owner_id", ownerID, "bytes", sizeBytes, "error", err)
	}
	if err := s.blobs.Delete(ctx, blobKey); err != nil {
		s.logger.Warnw("failed to clean up blob after aborted upload",
			"blob_key", blobKey, "error", err)
	}
}

// Delete oznacza wpis (i dla folderu całe poddrzewo po prefiksie ścieżki)
// jako usunięty, po czym sprząta bloby i oddaje miejsce jednym zwolnieniem.
// Porządek kroków jest gwarancją: metadane najpierw, kwota na końcu, a błąd
// usuwania blobu nigdy nie przerywa operacji.
func (s *Service) Delete(ctx context.Context, ownerID int64, entryID string) (int64, error) {
	target, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, ErrNotFound
	}
	if target.OwnerID != ownerID {
		return 0, ErrForbidden
	}

	scope := []models.Entry{*target}
	if target.IsFolder() {
		descendants, err := s.repo.FindEntriesByPathPrefix(ctx, ownerID, target.Path+"/")
		if err != nil {
			return 0, err
		}
		scope = append(scope, descendants...)
	}

	now := time.Now()
	ok, err := s.repo.MarkEntryDeleted(ctx, target.ID, ownerID, now)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFound
	}

	if target.IsFolder() {
		if _, err := s.repo.MarkEntriesDeletedByPathPrefix(ctx, ownerID, target.Path+"/", now); err != nil {
			return 0, err
		}
	}

	// Soft-delete w metadanych jest rozstrzygający; osierocony blob to
	// zaakceptowany koszt, widoczny tylko w logach.
	var releaseBytes int64
	for _, entry := range scope {
		if entry.EntryType != models.EntryTypeFile {
			continue
		}
		releaseBytes += entry.FileSize()
		if entry.BlobKey == nil {
			continue
		}
		if err := s.blobs.Delete(ctx, *entry.BlobKey); err != nil {
			s.logger.Warnw("failed to delete blob during entry delete",
				"entry_id", entry.ID, "blob_key", *entry.BlobKey, "error", err)
		}
	}

	if releaseBytes > 0 {
		return s.repo.ReleaseStorage(ctx, ownerID, releaseBytes)
	}

	return s.repo.GetStorageUsed(ctx, ownerID)
}

// DownloadURL zwraca podpisany, wygasający link do treści pliku.
func (s *Service) DownloadURL(ctx context.Context, ownerID int64, entryID string) (string, error) {
	entry, err := s.Get(ctx, ownerID, entryID)
	if err != nil {
		return "", err
	}
	if entry.IsFolder() {
		return "", ErrInvalidKind
	}
	if entry.BlobKey == nil {
		return "", ErrNotFound
	}

	return s.blobs.SignedURL(ctx, *entry.BlobKey, entry.Name, signedURLTTL)
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, database.ErrDuplicateEntryName):
		return ErrConflict
	case errors.Is(err, database.ErrParentNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidName)
}
