package files

import "errors"

// Błędy domenowe operacji na wpisach. Warstwa HTTP tłumaczy je na kody
// odpowiedzi, więc każdy rodzaj musi być rozróżnialny przez errors.Is.
var (
	ErrNotFound      = errors.New("entry not found")
	ErrForbidden     = errors.New("entry belongs to another user")
	ErrConflict      = errors.New("an entry with the same name and type already exists in this folder")
	ErrInvalidKind   = errors.New("parent entry is not a folder")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrInvalidName   = errors.New("entry name is empty or too long")
)
