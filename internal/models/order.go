package models

import "time"

// Statuts de commande
const (
	OrderStatusPending        = "pending"
	OrderStatusPreparing      = "preparing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// ValidStatusTransition vérifie qu'un changement de statut suit le cycle de vie
// pending → preparing → out_for_delivery → delivered, avec annulation possible
// tant que la commande n'est pas partie en livraison.
func ValidStatusTransition(from, to string) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusPreparing || to == OrderStatusCancelled
	case OrderStatusPreparing:
		return to == OrderStatusOutForDelivery || to == OrderStatusCancelled
	case OrderStatusOutForDelivery:
		return to == OrderStatusDelivered
	}
	return false
}

// OrderItem est un instantané immuable du prix et de la quantité au moment de l'achat
type OrderItem struct {
	MenuItemID int64   `json:"menu_item_id" bson:"menu_item_id"`
	Name       string  `json:"name" bson:"name"`
	Price      float64 `json:"price" bson:"price"`
	Quantity   int     `json:"quantity" bson:"quantity"`
}

type Order struct {
	ID        int64       `json:"id" bson:"id"`
	Reference string      `json:"reference" bson:"reference"`
	UserID    int64       `json:"user_id" bson:"user_id"`
	Items     []OrderItem `json:"items" bson:"items"`
	Status    string      `json:"status" bson:"status"`
	Total     float64     `json:"total" bson:"total"`
	Address   string      `json:"address" bson:"address"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}
