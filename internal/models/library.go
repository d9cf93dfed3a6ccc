package models

import "time"

// BookStatus tracks the circulation state of a library book.
type BookStatus string

const (
	BookAvailable BookStatus = "Available"
	BookIssued    BookStatus = "Issued"
)

// LibraryBook is one title in the institute library.
type LibraryBook struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Status    BookStatus `json:"status"`
	IssuedTo  string     `json:"issued_to,omitempty"`
	IssueDate *time.Time `json:"issue_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
