package domain

// Access rules shared by every service. Each Can* function combines a role
// check with the tenant-scope check; superadmins are not tenant scoped.

// IsSuperadmin reports whether the role crosses tenant boundaries.
func (r Role) IsSuperadmin() bool {
	return r == RoleSuperadmin
}

// CanScheduleTrips reports whether the role may create trips at all.
func (r Role) CanScheduleTrips() bool {
	return r == RoleAdmin || r == RoleOperations || r == RoleSuperadmin
}

// CanEditSchedules reports whether the role may write driver schedule entries.
func (r Role) CanEditSchedules() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// CanReadSchedules reports whether the role may view driver schedules.
func (r Role) CanReadSchedules() bool {
	return r.CanScheduleTrips()
}

// Known reports whether the role is one of the defined roles.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleFinance, RoleOperations, RoleSuperadmin:
		return true
	}
	return false
}

// SameTenant reports whether a caller in callerTenant may act on targetTenant.
func SameTenant(role Role, callerTenant, targetTenant string) bool {
	if role.IsSuperadmin() {
		return true
	}
	return callerTenant != "" && callerTenant == targetTenant
}

// CanCreateTrip reports whether a caller may create a trip in requestTenant.
func CanCreateTrip(role Role, callerTenant, requestTenant string) bool {
	return role.CanScheduleTrips() && SameTenant(role, callerTenant, requestTenant)
}

// CanManageSchedules reports whether a caller may write schedule entries for a
// driver that belongs to driverTenant.
func CanManageSchedules(role Role, callerTenant, driverTenant string) bool {
	return role.CanEditSchedules() && SameTenant(role, callerTenant, driverTenant)
}

// CanViewSchedules reports whether a caller may read schedule entries and the
// availability calendar of a driver that belongs to driverTenant.
func CanViewSchedules(role Role, callerTenant, driverTenant string) bool {
	return role.CanReadSchedules() && SameTenant(role, callerTenant, driverTenant)
}

// CanViewTrips reports whether a caller may list trips of requestTenant.
func CanViewTrips(role Role, callerTenant, requestTenant string) bool {
	return role.Known() && SameTenant(role, callerTenant, requestTenant)
}
