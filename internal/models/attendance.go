package models

import "time"

// AttendanceEventType distinguishes the two clock directions.
type AttendanceEventType string

const (
	ClockIn  AttendanceEventType = "clock-in"
	ClockOut AttendanceEventType = "clock-out"
)

// AttendanceEvent is one entry in the append-only attendance log.
type AttendanceEvent struct {
	ID        string              `json:"id"`
	StudentID string              `json:"student_id"`
	Timestamp time.Time           `json:"timestamp"`
	Type      AttendanceEventType `json:"type"`
}

// AttendanceStatus is the derived classification for one student and day.
// It is recomputed on every read and never stored.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceAbsent  AttendanceStatus = "Absent"
)

// DailyAttendance reports one student's derived status for a day.
type DailyAttendance struct {
	StudentID    string           `json:"student_id"`
	Date         string           `json:"date"`
	Status       AttendanceStatus `json:"status"`
	FirstClockIn *time.Time       `json:"first_clock_in,omitempty"`
	LastClockOut *time.Time       `json:"last_clock_out,omitempty"`
}
