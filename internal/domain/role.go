package domain

// Role identifies a user's position in the retail or vendor organisation.
type Role string

const (
	RoleStoreManager        Role = "STORE_MANAGER"
	RoleAreaManager         Role = "AREA_MANAGER"
	RoleSalesDirector       Role = "SALES_DIRECTOR"
	RoleMaintenanceDirector Role = "MAINTENANCE_DIRECTOR"
	RoleBoardOfDirectors    Role = "BOARD_OF_DIRECTORS"
	RoleMaintenanceStaff    Role = "MAINTENANCE_STAFF"
	RoleVendorAdmin         Role = "VENDOR_ADMIN"
	RoleVendorTechnician    Role = "VENDOR_TECHNICIAN"
)

// RoleScope describes how a role is attached to the org structure, which
// drives how a concrete user is resolved for that role.
type RoleScope string

const (
	ScopeStore   RoleScope = "STORE"
	ScopeRegion  RoleScope = "REGION"
	ScopeCompany RoleScope = "COMPANY"
	ScopeVendor  RoleScope = "VENDOR"
)

var roleScopes = map[Role]RoleScope{
	RoleStoreManager:        ScopeStore,
	RoleAreaManager:         ScopeRegion,
	RoleSalesDirector:       ScopeCompany,
	RoleMaintenanceDirector: ScopeCompany,
	RoleBoardOfDirectors:    ScopeCompany,
	RoleMaintenanceStaff:    ScopeCompany,
	RoleVendorAdmin:         ScopeVendor,
	RoleVendorTechnician:    ScopeVendor,
}

// ScopeOf returns the org scope the role is resolved within.
func ScopeOf(role Role) RoleScope {
	return roleScopes[role]
}

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	_, ok := roleScopes[r]
	return ok
}

// IsVendor reports whether the role belongs to a vendor organisation rather
// than the retail company.
func (r Role) IsVendor() bool {
	return roleScopes[r] == ScopeVendor
}
