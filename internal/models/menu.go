package models

import "time"

// MenuItem représente un plat du menu.
// Popularity est incrémentée à chaque commande, Rating est dérivé de RatingSum/RatingCount.
type MenuItem struct {
	ID          int64     `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	Category    string    `json:"category" bson:"category"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Popularity  int       `json:"popularity" bson:"popularity"`
	RatingSum   int       `json:"-" bson:"rating_sum"`
	RatingCount int       `json:"rating_count" bson:"rating_count"`
	Available   bool      `json:"available" bson:"available"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Rating retourne la note moyenne (0 si aucun vote)
func (m MenuItem) Rating() float64 {
	if m.RatingCount == 0 {
		return 0
	}
	return float64(m.RatingSum) / float64(m.RatingCount)
}
