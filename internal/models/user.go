package models

import "time"

// StorageCapacityBytes to stały, globalny limit miejsca na użytkownika (15 GiB).
const StorageCapacityBytes int64 = 15 << 30

type User struct {
	ID               int64     `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	DisplayName      *string   `json:"display_name,omitempty" db:"display_name"`
	Email            *string   `json:"email,omitempty" db:"email"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	StorageUsedBytes int64     `json:"storage_used_bytes" db:"storage_used_bytes"`
}
