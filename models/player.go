package models

// Player is the slice of a member record this service needs.
// Members are owned by the directory; only existence and contact are read.
type Player struct {
	ID        string  `json:"id" db:"id"`
	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name" db:"last_name"`
	Email     *string `json:"email,omitempty" db:"email"`
}

func (p Player) DisplayName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
