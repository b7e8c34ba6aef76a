package files

import (
	"context"
	"fmt"
	"strings"

	"chmura-plikow/internal/models"

	"github.com/jaevor/go-nanoid"
)

const maxNameLength = 255

// Separator ścieżki w nazwie podszyłby zmaterializowaną ścieżkę pod cudze
// poddrzewo i kaskada usuwania objęłaby nie-potomka.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" || len(name) > maxNameLength {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\x00") {
		return ErrInvalidName
	}
	return nil
}

// fetchParent pobiera i waliduje folder nadrzędny. Rozróżnienie NotFound,
// Forbidden i InvalidKind wymaga pobrania wpisu bez filtra właściciela.
func (s *Service) fetchParent(ctx context.Context, ownerID int64, parentID string) (*models.Entry, error) {
	parent, err := s.repo.GetEntry(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	if parent.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if !parent.IsFolder() {
		return nil, ErrInvalidKind
	}
	return parent, nil
}

// resolvePath buduje zmaterializowaną ścieżkę nowego wpisu: "/name" w korzeniu,
// inaczej ścieżka rodzica + "/" + name. Ścieżka jest zapisywana raz i nigdy
// nie jest przepisywana. Zmiana nazwy nie istnieje w tym modelu.
func (s *Service) resolvePath(ctx context.Context, ownerID int64, parentID *string, name string) (string, error) {
	if parentID == nil {
		return "/" + name, nil
	}

	parent, err := s.fetchParent(ctx, ownerID, *parentID)
	if err != nil {
		return "", err
	}

	return parent.Path + "/" + name, nil
}

// checkNameCollision sprawdza rodzeństwo tylko w obrębie tego samego typu:
// plik i folder o tej samej nazwie mogą współistnieć pod jednym rodzicem.
func (s *Service) checkNameCollision(ctx context.Context, ownerID int64, parentID *string, name string, entryType string) error {
	exists, err := s.repo.SiblingExists(ctx, ownerID, parentID, name, entryType)
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}
	return nil
}

func (s *Service) generateUniqueID(ctx context.Context) (string, error) {
	maxRetries := 10

	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		id := generateID()
		exists, err := s.repo.EntryExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for entry existence: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
