package domain

import "time"

// DriverStatus is the employment status of a driver.
type DriverStatus string

const (
	DriverActive    DriverStatus = "Activo"
	DriverSuspended DriverStatus = "Suspendido"
)

// Driver is a bus driver owned by one tenant. Drivers are managed elsewhere;
// this service only reads them.
type Driver struct {
	ID            string
	Name          string
	License       string
	Phone         string
	AssignedBusID string
	TenantID      string
	Status        DriverStatus
	CreatedAt     time.Time
}
