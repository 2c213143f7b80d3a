package models

import "time"

// Customer is an end user of a fleet, shown as "users" in the console.
type Customer struct {
	ID          string    `json:"id"`
	AdminUID    string    `json:"admin_uid"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	CIN         string    `json:"cin"`
	Phone       string    `json:"phone"`
	CompanyName string    `json:"company_name"`
	Address     string    `json:"address"`
	VehicleID   *string   `json:"vehicle_id"`
	DeveloperID *string   `json:"developer_id"`
	CreatedAt   time.Time `json:"created_at"`
}
