package models

// CartItem : au plus une ligne par couple (utilisateur, plat)
type CartItem struct {
	ID         int64 `json:"id" bson:"id"`
	UserID     int64 `json:"user_id" bson:"user_id"`
	MenuItemID int64 `json:"menu_item_id" bson:"menu_item_id"`
	Quantity   int   `json:"quantity" bson:"quantity"`

	// Champs d'affichage remplis à la lecture depuis le menu (jamais persistés)
	Name     string  `json:"name,omitempty" bson:"-"`
	Price    float64 `json:"price,omitempty" bson:"-"`
	ImageURL string  `json:"image_url,omitempty" bson:"-"`
}
