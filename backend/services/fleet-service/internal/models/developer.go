package models

import "time"

// Developer is a read-only operator account created by an admin.
type Developer struct {
	ID          string    `json:"id"`
	AdminUID    string    `json:"admin_uid"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	CIN         string    `json:"cin"`
	Phone       string    `json:"phone"`
	CompanyName string    `json:"company_name"`
	Address     string    `json:"address"`
	VehicleIDs  []string  `json:"vehicle_ids"`
	CustomerIDs []string  `json:"customer_ids"`
	CreatedAt   time.Time `json:"created_at"`
}
