package models

// RoomStatus represents the occupancy of a room at a point in time for display purposes
type RoomStatus struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Date     string `json:"date"`
	At       string `json:"at"`
	State    string `json:"state"`
	// Boundary is the end of the current booking when occupied, or the start
	// of the next one when available. Nil means no boundary for the day.
	Boundary *int   `json:"boundary_minute,omitempty"`
	Until    string `json:"until"`
}
