package models

import "time"

// Class groups students under a class teacher.
type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subject is a taught discipline identified by a short code.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
