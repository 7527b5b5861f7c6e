package model

import (
	"time"
)

// User is the document stored by every backing store. Field tags cover the
// JSON API, the mongo document, and the postgres row.
type User struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Name      string    `json:"name" bson:"name" db:"name"`
	Email     string    `json:"email" bson:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// UserInput carries the writable fields of a User.
type UserInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=320"`
}

// Apply copies the input onto u.
func (in UserInput) Apply(u *User) {
	u.Name = in.Name
	u.Email = in.Email
}
