package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/dumpster-logistics/internal/auth"
	"github.com/ukydev/dumpster-logistics/internal/db"
	"github.com/ukydev/dumpster-logistics/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// UserLookup finds the stored account a token was issued for.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
	users       UserLookup
}

// NewAuthMiddleware creates a new authentication middleware. With a non-nil
// users, every request is checked against the stored account, so removed or
// deactivated users lose access at once and role changes apply immediately.
func NewAuthMiddleware(authService *auth.Service, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		users:       users,
	}
}

// Authenticate validates JWT tokens and adds user context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for certain endpoints
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Extract token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		// Validate token
		claims, err := m.authService.ValidateToken(authHeader)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if m.users != nil {
			status, msg := m.verifyAccount(r.Context(), claims)
			if status != http.StatusOK {
				http.Error(w, msg, status)
				return
			}
		}

		// Add user context to request
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
	})
}

// verifyAccount checks claims against the stored user and refreshes the
// role from it.
func (m *AuthMiddleware) verifyAccount(ctx context.Context, claims *models.Claims) (int, string) {
	user, err := m.users.FindUserByID(ctx, claims.UserID)
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		return http.StatusUnauthorized, "Account not found"
	}
	if err != nil {
		log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to load account")
		return http.StatusServiceUnavailable, "Unable to verify account"
	}
	if !user.IsActive || user.TenantID != claims.TenantID {
		return http.StatusUnauthorized, "Account is deactivated"
	}
	claims.Role = user.Role
	return http.StatusOK, ""
}

// RequirePermission middleware checks if the user has the required permission
func (m *AuthMiddleware) RequirePermission(requiredAction string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(UserContextKey).(*models.Claims)
			if !ok {
				http.Error(w, "User context not found", http.StatusUnauthorized)
				return
			}

			// Create a temporary user object to check permissions
			user := &models.User{
				Role: claims.Role,
			}

			if !user.HasPermission(requiredAction) {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

// WithUser returns a copy of ctx carrying the given claims
func WithUser(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	// Skip auth for login and register endpoints
	skipPaths := []string{
		"/api/auth/login",
		"/api/auth/register",
		"/health",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}
