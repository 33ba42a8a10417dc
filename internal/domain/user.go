package domain

import "time"

// User is an authenticated actor: store staff, internal approver or vendor
// personnel. Region and store are set only for roles scoped below company.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CompanyID    string
	RegionID     *string
	StoreID      *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
