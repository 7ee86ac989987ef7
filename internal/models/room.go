package models

// Room represents a bookable study room
type Room struct {
	ID       string `json:"id" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=200"`
	Building string `json:"building,omitempty" validate:"max=200"`
	Type     string `json:"type,omitempty" validate:"max=100"`
	Capacity int    `json:"capacity" validate:"min=0,max=1000"`
}

// HasCapacity returns true if the room seats at least n people
func (r *Room) HasCapacity(n int) bool {
	return r.Capacity >= n
}
