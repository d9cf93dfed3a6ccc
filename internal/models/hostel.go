package models

import "time"

// RoomStatus is derived from occupancy, never persisted.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "Available"
	RoomFull      RoomStatus = "Full"
)

// HostelRoom describes one room and its occupants (student IDs).
type HostelRoom struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Type      string    `json:"type"`
	Capacity  int       `json:"capacity"`
	Occupants []string  `json:"occupants"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Full reports whether the room has no remaining capacity.
func (r HostelRoom) Full() bool {
	return len(r.Occupants) >= r.Capacity
}

// Status recomputes the derived room status on every call.
func (r HostelRoom) Status() RoomStatus {
	if r.Full() {
		return RoomFull
	}
	return RoomAvailable
}

// HostelRoomView is the read model carrying the derived status.
type HostelRoomView struct {
	HostelRoom
	Status RoomStatus `json:"status"`
}
