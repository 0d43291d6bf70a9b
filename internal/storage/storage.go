// Package storage définit le contrat unique que tous les backends de
// persistance implémentent (mémoire, SQLite, MongoDB). Les handlers ne
// connaissent que cette interface ; le backend est choisi via STORAGE_BACKEND.
package storage

import (
	"context"
	"errors"

	"foodcourt_back_end/internal/models"
)

// Erreurs sentinelles communes à tous les backends
var (
	ErrNotFound          = errors.New("ressource introuvable")
	ErrEmailTaken        = errors.New("email déjà utilisé")
	ErrInvalidQuantity   = errors.New("quantité invalide")
	ErrInvalidRating     = errors.New("note invalide (1 à 5)")
	ErrInvalidTransition = errors.New("transition de statut invalide")
)

// Tri des listes de menu
const (
	SortPopularity = "popularity"
	SortRating     = "rating"
	SortPrice      = "price"
)

// MenuFilter restreint et ordonne ListMenuItems.
// Query est une recherche plein-texte naïve (nom + description) ; la vraie
// recherche passe par Elasticsearch quand il est configuré.
type MenuFilter struct {
	Category      string
	Query         string
	SortBy        string // popularity | rating | price ("" = id croissant)
	OnlyAvailable bool
	Limit         int
	Offset        int
}

// Store est le contrat commun des trois backends.
// Toutes les opérations d'écriture assignent les IDs numériques applicatifs.
type Store interface {
	// --- Utilisateurs ---
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error

	// --- Menu ---
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, filter MenuFilter) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
	BumpPopularity(ctx context.Context, id int64, delta int) error
	RateMenuItem(ctx context.Context, id int64, stars int) error

	// --- Panier (invariant : une seule ligne par couple user/plat) ---
	UpsertCartItem(ctx context.Context, userID, menuItemID int64, quantity int) error
	ListCart(ctx context.Context, userID int64) ([]models.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, menuItemID int64) error
	ClearCart(ctx context.Context, userID int64) error

	// --- Commandes (les items sont des instantanés immuables) ---
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, status string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error

	Close() error
}
