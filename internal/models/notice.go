package models

import "time"

// Notice is a public announcement shown on the marketing site and portal.
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// JobPosting is a public vacancy announcement with an optional photo.
type JobPosting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
