package models

import "time"

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoAdStatus tracks asynchronous promotional-video generation.
type VideoAdStatus string

const (
	VideoAdPending    VideoAdStatus = "pending"
	VideoAdProcessing VideoAdStatus = "processing"
	VideoAdCompleted  VideoAdStatus = "completed"
	VideoAdFailed     VideoAdStatus = "failed"
)

// VideoAd is a generated promotional video request and its outcome.
type VideoAd struct {
	ID          string        `json:"id"`
	Prompt      string        `json:"prompt"`
	Storyboard  string        `json:"storyboard,omitempty"`
	Status      VideoAdStatus `json:"status"`
	VideoURL    string        `json:"video_url,omitempty"`
	FailureNote string        `json:"failure_note,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
