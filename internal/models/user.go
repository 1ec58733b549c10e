package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents a team member's role within a tenant
type Role string

const (
	RoleOwner      Role = "owner"
	RoleManager    Role = "manager"
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
)

// Actions checked by HasPermission
const (
	ActionViewTeam        = "view_team"
	ActionManageTeam      = "manage_team"
	ActionDeleteUser      = "delete_user"
	ActionViewClients     = "view_clients"
	ActionManageClients   = "manage_clients"
	ActionViewSchedules   = "view_schedules"
	ActionManageSchedules = "manage_schedules"
	ActionViewOrders      = "view_orders"
	ActionUpdateOrders    = "update_orders"
	ActionResolveLocation = "resolve_location"
)

// User represents a team member of a tenant
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID     string             `bson:"tenant_id" json:"tenant_id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a user registration request. Self-registration
// always starts a new tenant; team members are added by an owner.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleOwner, RoleManager, RoleDispatcher, RoleDriver:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleOwner:
		return true
	case RoleManager:
		return action != ActionDeleteUser && action != ActionManageTeam
	case RoleDispatcher:
		return action == ActionViewClients || action == ActionManageClients ||
			action == ActionViewSchedules || action == ActionManageSchedules ||
			action == ActionViewOrders || action == ActionUpdateOrders ||
			action == ActionResolveLocation
	case RoleDriver:
		return action == ActionViewClients || action == ActionViewOrders ||
			action == ActionUpdateOrders || action == ActionResolveLocation
	default:
		return false
	}
}
