package models

import "time"

type User struct {
	ID         int64     `json:"id" bson:"id"`
	Name       string    `json:"name,omitempty" bson:"name"`
	Email      string    `json:"email" bson:"email"`
	Password   string    `json:"-" bson:"password"`
	IsAdmin    bool      `json:"is_admin" bson:"is_admin"`
	Provider   string    `json:"provider,omitempty" bson:"provider,omitempty"`
	ProviderID string    `json:"-" bson:"provider_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
