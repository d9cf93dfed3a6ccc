package dto

// DashboardResponse is the admin dashboard payload.
type DashboardResponse struct {
	SchoolID   string              `json:"school_id"`
	Counts     DashboardCounts     `json:"counts"`
	Fees       DashboardFees       `json:"fees"`
	Attendance DashboardAttendance `json:"attendance"`
	Hostel     DashboardHostel     `json:"hostel"`
}

// DashboardCounts holds headline entity totals.
type DashboardCounts struct {
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Classes  int `json:"classes"`
	Books    int `json:"books"`
	Rooms    int `json:"rooms"`
	Vehicles int `json:"vehicles"`
	Notices  int `json:"notices"`
}

// DashboardFees aggregates the fee ledgers of all students.
type DashboardFees struct {
	TotalBilled    int64   `json:"total_billed"`
	TotalCollected int64   `json:"total_collected"`
	Outstanding    int64   `json:"outstanding"`
	CollectionRate float64 `json:"collection_rate"`
}

// DashboardAttendance summarises today's derived register.
type DashboardAttendance struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
	Absent  int    `json:"absent"`
}

// DashboardHostel summarises room occupancy.
type DashboardHostel struct {
	Rooms     int `json:"rooms"`
	Capacity  int `json:"capacity"`
	Occupants int `json:"occupants"`
	FullRooms int `json:"full_rooms"`
}
