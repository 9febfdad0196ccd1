package person

import "time"

// Person is one resident record. The four location fields form a strict
// containment hierarchy (village inside commune inside district inside
// province); the hierarchy is assumed, not enforced by foreign keys.
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Gender    string    `json:"gender"`
	Age       int       `json:"age"`
	Province  string    `json:"province"`
	District  string    `json:"district"`
	Commune   string    `json:"commune"`
	Village   string    `json:"village"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	GenderMale   = "male"
	GenderFemale = "female"
)
