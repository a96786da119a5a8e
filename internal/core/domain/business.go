package domain

import "time"

type Role string

const (
	RoleBusiness Role = "business"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type BusinessStatus string

const (
	BusinessActive    BusinessStatus = "active"
	BusinessInactive  BusinessStatus = "inactive"
	BusinessSuspended BusinessStatus = "suspended"
)

// Business is the account a campaign belongs to. The identity provider
// owns credentials; this row only maps an account onto a business profile.
type Business struct {
	ID        string         `json:"id" db:"id"`
	AccountID string         `json:"account_id" db:"account_id"`
	Name      string         `json:"name" db:"name"`
	Status    BusinessStatus `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Identity is the resolved authenticated caller, produced by the auth
// layer from a bearer token. The core never sees the token itself.
type Identity struct {
	AccountID string
	Email     string
	Role      Role
}
