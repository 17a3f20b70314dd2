package model

// Contact is an audience entry offered to the authoring flow.
type Contact struct {
	ID     int    `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Phone  string `db:"phone" json:"phone"`
	Email  string `db:"email" json:"email"`
	Status string `db:"status" json:"status"`
}
