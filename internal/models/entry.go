package models

import "time"

const (
	EntryTypeFile   = "file"
	EntryTypeFolder = "folder"
)

// Entry to plik lub folder. Ścieżka jest materializowana przy tworzeniu
// (ścieżka rodzica + "/" + nazwa) i nigdy nie jest przepisywana.
type Entry struct {
	ID           string     `json:"id"`
	OwnerID      int64      `json:"owner_id"`
	ParentID     *string    `json:"parent_id"`
	Name         string     `json:"name"`
	EntryType    string     `json:"entry_type"`
	Path         string     `json:"path"`
	SizeBytes    *int64     `json:"size_bytes"`
	MimeType     *string    `json:"mime_type"`
	OriginalName *string    `json:"original_name,omitempty"`
	BlobKey      *string    `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

func (e *Entry) IsFolder() bool {
	return e.EntryType == EntryTypeFolder
}

func (e *Entry) FileSize() int64 {
	if e.EntryType != EntryTypeFile || e.SizeBytes == nil {
		return 0
	}
	return *e.SizeBytes
}
