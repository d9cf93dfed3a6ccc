package models

import "time"

// TransportVehicle is one vehicle on the institute transport roster.
type TransportVehicle struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	DriverName    string    `json:"driver_name"`
	DriverContact string    `json:"driver_contact"`
	Route         string    `json:"route"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
