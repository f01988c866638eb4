package models

import "time"

// FiduciaryRole is a functional responsibility used for audit attribution.
type FiduciaryRole string

const (
	RoleLaw        FiduciaryRole = "LAW"
	RoleCPA        FiduciaryRole = "CPA"
	RoleTreasury   FiduciaryRole = "TREASURY"
	RoleInsurance  FiduciaryRole = "INSURANCE"
	RoleOps        FiduciaryRole = "OPS"
	RoleGovernance FiduciaryRole = "GOVERNANCE"
	RoleOracle     FiduciaryRole = "ORACLE"
)

// UserStatus marks whether a fiduciary account is active.
type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

// User is a fiduciary account. Role is not unique by schema; audit
// attribution looks up the first match per role.
type User struct {
	ID          int64         `db:"id" json:"id"`
	Email       string        `db:"email" json:"email"`
	DisplayName string        `db:"display_name" json:"display_name"`
	Role        FiduciaryRole `db:"role" json:"role"`
	Status      UserStatus    `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}
