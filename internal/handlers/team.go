package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

// ListTeam returns the users of the caller's tenant
func (h *AuthHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	users, err := h.userCollection.FindTeam(r.Context(), claims.TenantID)
	if err != nil {
		storeError(w, err, "Failed to list team")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// AddMember creates a user in the caller's tenant with the requested role
func (h *AuthHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req models.RegisterRequest
	if !readJSON(w, r, &req) {
		return
	}

	user, status, err := h.createUser(r.Context(), claims.TenantID, req)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	log.WithFields(log.Fields{
		"tenant_id": claims.TenantID,
		"username":  user.Username,
		"role":      user.Role,
		"added_by":  claims.Username,
	}).Info("Team member added")
	writeJSON(w, http.StatusCreated, user)
}

// RemoveMember deletes another user of the caller's tenant
func (h *AuthHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == claims.UserID {
		http.Error(w, "Cannot remove yourself", http.StatusBadRequest)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), id)
	if err != nil || user.TenantID != claims.TenantID {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if err := h.userCollection.DeleteUser(r.Context(), id); err != nil {
		storeError(w, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
