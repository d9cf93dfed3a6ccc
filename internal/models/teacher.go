package models

import "time"

// Teacher represents a member of the teaching staff.
type Teacher struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Qualification string    `json:"qualification"`
	Phone         string    `json:"phone"`
	Salary        int64     `json:"salary"`
	JoiningDate   time.Time `json:"joining_date"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
