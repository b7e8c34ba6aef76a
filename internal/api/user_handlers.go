package api

import (
	"encoding/json"
	"net/http"

	"chmura-plikow/internal/auth"
	"chmura-plikow/internal/models"
)

// @Summary      Get current user info
// @Description  Retrieves information about the currently authenticated user from their JWT token.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  auth.AppClaims
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claims)
}

type StorageUsageResponse struct {
	UsedBytes  int64 `json:"used_bytes"`
	QuotaBytes int64 `json:"quota_bytes"`
}

// @Summary      Get storage usage
// @Description  Retrieves the current storage usage and the fixed 15 GiB quota for the authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StorageUsageResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me/storage [get]
func (s *Server) GetStorageUsageHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	usedBytes, err := s.store.GetStorageUsed(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve storage usage", http.StatusInternalServerError)
		return
	}

	response := StorageUsageResponse{
		UsedBytes:  usedBytes,
		QuotaBytes: models.StorageCapacityBytes,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// @Summary      Change password
// @Description  Changes the password of the authenticated user. All refresh sessions are terminated, so other devices must log in again.
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        changePasswordRequest  body  ChangePasswordRequest  true  "Old and new password"
// @Success      204  {null}    nil "No Content"
// @Failure      400  {string}  string "Invalid request body or new password too short"
// @Failure      401  {string}  string "Invalid current password"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me/password [put]
func (s *Server) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < 8 {
		http.Error(w, "New password must have at least 8 characters", http.StatusBadRequest)
		return
	}

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil || user == nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}

	if !auth.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		http.Error(w, "Invalid current password", http.StatusUnauthorized)
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	if err := s.store.UpdateUserPassword(r.Context(), claims.UserID, newHash); err != nil {
		s.logger.Errorw("failed to update password", "user_id", claims.UserID, "error", err)
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	// Zmiana hasła unieważnia wszystkie refresh tokeny
	if err := s.store.DeleteAllSessionsForUser(r.Context(), claims.UserID); err != nil {
		s.logger.Warnw("failed to terminate sessions after password change", "user_id", claims.UserID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
