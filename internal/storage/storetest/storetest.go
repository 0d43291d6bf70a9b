// Package storetest contient la suite de conformité du contrat storage.Store,
// exécutée telle quelle contre chaque backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
)

// Factory crée un backend vierge pour un sous-test donné.
type Factory func(t *testing.T) storage.Store

// Run exécute la suite complète contre le backend fourni par la factory.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Menu", func(t *testing.T) { testMenu(t, newStore(t)) })
	t.Run("MenuSorting", func(t *testing.T) { testMenuSorting(t, newStore(t)) })
	t.Run("Cart", func(t *testing.T) { testCart(t, newStore(t)) })
	t.Run("Orders", func(t *testing.T) { testOrders(t, newStore(t)) })
	t.Run("OrderStatus", func(t *testing.T) { testOrderStatus(t, newStore(t)) })
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	u := &models.User{Name: "Alice", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotZero(t, u.ID)
	require.False(t, u.CreatedAt.IsZero())

	// Email déjà pris, indépendamment de la casse
	err := s.CreateUser(ctx, &models.User{Name: "Bob", Email: "ALICE@example.com"})
	require.ErrorIs(t, err, storage.ErrEmailTaken)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.False(t, got.IsAdmin)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.GetUser(ctx, 9999)
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SetAdmin(ctx, u.ID, true))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	require.ErrorIs(t, s.SetAdmin(ctx, 9999, true), storage.ErrNotFound)
}

func testMenu(t *testing.T, s storage.Store) {
	ctx := context.Background()

	tajine := &models.MenuItem{Name: "Tajine de poulet", Description: "citron confit, olives",
		Price: 14.50, Category: "plats", Available: true}
	require.NoError(t, s.CreateMenuItem(ctx, tajine))
	require.NotZero(t, tajine.ID)

	soupe := &models.MenuItem{Name: "Harira", Description: "soupe traditionnelle",
		Price: 6.00, Category: "entrées", Available: true}
	require.NoError(t, s.CreateMenuItem(ctx, soupe))

	masque := &models.MenuItem{Name: "Plat du jour", Price: 12.00, Category: "plats", Available: false}
	require.NoError(t, s.CreateMenuItem(ctx, masque))

	got, err := s.GetMenuItem(ctx, tajine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tajine de poulet", got.Name)
	assert.Equal(t, 14.50, got.Price)

	_, err = s.GetMenuItem(ctx, 9999)
	require.ErrorIs(t, err, storage.ErrNotFound)

	all, err := s.ListMenuItems(ctx, storage.MenuFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	plats, err := s.ListMenuItems(ctx, storage.MenuFilter{Category: "plats"})
	require.NoError(t, err)
	require.Len(t, plats, 2)

	dispo, err := s.ListMenuItems(ctx, storage.MenuFilter{OnlyAvailable: true})
	require.NoError(t, err)
	require.Len(t, dispo, 2)

	recherche, err := s.ListMenuItems(ctx, storage.MenuFilter{Query: "soupe"})
	require.NoError(t, err)
	require.Len(t, recherche, 1)
	assert.Equal(t, "Harira", recherche[0].Name)

	// Mise à jour
	got.Price = 15.00
	got.Available = false
	require.NoError(t, s.UpdateMenuItem(ctx, got))
	updated, err := s.GetMenuItem(ctx, tajine.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.00, updated.Price)
	assert.False(t, updated.Available)

	require.ErrorIs(t, s.UpdateMenuItem(ctx, &models.MenuItem{ID: 9999, Name: "x"}), storage.ErrNotFound)

	// Popularité et notes
	require.NoError(t, s.BumpPopularity(ctx, tajine.ID, 3))
	require.NoError(t, s.RateMenuItem(ctx, tajine.ID, 5))
	require.NoError(t, s.RateMenuItem(ctx, tajine.ID, 4))
	require.ErrorIs(t, s.RateMenuItem(ctx, tajine.ID, 0), storage.ErrInvalidRating)
	require.ErrorIs(t, s.RateMenuItem(ctx, tajine.ID, 6), storage.ErrInvalidRating)

	noted, err := s.GetMenuItem(ctx, tajine.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, noted.Popularity)
	assert.Equal(t, 2, noted.RatingCount)
	assert.InDelta(t, 4.5, noted.Rating(), 0.001)

	// Une mise à jour venue d'un struct neuf ne remet pas les compteurs à zéro
	require.NoError(t, s.UpdateMenuItem(ctx, &models.MenuItem{
		ID: tajine.ID, Name: "Tajine royal", Price: 16.00, Category: "plats", Available: true,
	}))
	noted, err = s.GetMenuItem(ctx, tajine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tajine royal", noted.Name)
	assert.Equal(t, 3, noted.Popularity)
	assert.Equal(t, 2, noted.RatingCount)
	assert.InDelta(t, 4.5, noted.Rating(), 0.001)

	// Suppression
	require.NoError(t, s.DeleteMenuItem(ctx, soupe.ID))
	_, err = s.GetMenuItem(ctx, soupe.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, s.DeleteMenuItem(ctx, soupe.ID), storage.ErrNotFound)
}

func testMenuSorting(t *testing.T, s storage.Store) {
	ctx := context.Background()

	a := &models.MenuItem{Name: "A", Price: 10, Category: "plats", Available: true}
	b := &models.MenuItem{Name: "B", Price: 5, Category: "plats", Available: true}
	c := &models.MenuItem{Name: "C", Price: 8, Category: "plats", Available: true}
	for _, item := range []*models.MenuItem{a, b, c} {
		require.NoError(t, s.CreateMenuItem(ctx, item))
	}

	require.NoError(t, s.BumpPopularity(ctx, b.ID, 10))
	require.NoError(t, s.BumpPopularity(ctx, c.ID, 5))

	require.NoError(t, s.RateMenuItem(ctx, a.ID, 3))
	require.NoError(t, s.RateMenuItem(ctx, c.ID, 5))

	byPop, err := s.ListMenuItems(ctx, storage.MenuFilter{SortBy: storage.SortPopularity})
	require.NoError(t, err)
	require.Len(t, byPop, 3)
	assert.Equal(t, []string{"B", "C", "A"}, names(byPop))

	byRating, err := s.ListMenuItems(ctx, storage.MenuFilter{SortBy: storage.SortRating})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, names(byRating))

	byPrice, err := s.ListMenuItems(ctx, storage.MenuFilter{SortBy: storage.SortPrice})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, names(byPrice))

	// Pagination
	page, err := s.ListMenuItems(ctx, storage.MenuFilter{SortBy: storage.SortPrice, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "C", page[0].Name)

	vide, err := s.ListMenuItems(ctx, storage.MenuFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, vide)
}

func names(items []models.MenuItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func testCart(t *testing.T, s storage.Store) {
	ctx := context.Background()

	plat := &models.MenuItem{Name: "Couscous", Price: 13, Category: "plats", Available: true}
	require.NoError(t, s.CreateMenuItem(ctx, plat))
	autre := &models.MenuItem{Name: "Thé à la menthe", Price: 2.5, Category: "boissons", Available: true}
	require.NoError(t, s.CreateMenuItem(ctx, autre))

	const userID = int64(42)

	require.ErrorIs(t, s.UpsertCartItem(ctx, userID, plat.ID, 0), storage.ErrInvalidQuantity)
	require.ErrorIs(t, s.UpsertCartItem(ctx, userID, plat.ID, -1), storage.ErrInvalidQuantity)
	require.ErrorIs(t, s.UpsertCartItem(ctx, userID, 9999, 1), storage.ErrNotFound)

	require.NoError(t, s.UpsertCartItem(ctx, userID, plat.ID, 2))
	require.NoError(t, s.UpsertCartItem(ctx, userID, autre.ID, 1))

	// Une seule ligne par couple (user, plat) : la quantité est remplacée
	require.NoError(t, s.UpsertCartItem(ctx, userID, plat.ID, 5))

	items, err := s.ListCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, plat.ID, items[0].MenuItemID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, autre.ID, items[1].MenuItemID)

	// Le panier d'un autre utilisateur est indépendant
	other, err := s.ListCart(ctx, 77)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.RemoveCartItem(ctx, userID, autre.ID))
	require.ErrorIs(t, s.RemoveCartItem(ctx, userID, autre.ID), storage.ErrNotFound)

	// La suppression d'un plat le retire des paniers
	require.NoError(t, s.DeleteMenuItem(ctx, plat.ID))
	items, err = s.ListCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, s.UpsertCartItem(ctx, userID, autre.ID, 3))
	require.NoError(t, s.ClearCart(ctx, userID))
	items, err = s.ListCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func testOrders(t *testing.T, s storage.Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	first := &models.Order{
		Reference: "ref-1",
		UserID:    1,
		Items: []models.OrderItem{
			{MenuItemID: 1, Name: "Couscous", Price: 13, Quantity: 2},
			{MenuItemID: 2, Name: "Thé", Price: 2.5, Quantity: 1},
		},
		Total:     28.5,
		Address:   "12 rue des Oliviers",
		CreatedAt: base,
	}
	require.NoError(t, s.CreateOrder(ctx, first))
	require.NotZero(t, first.ID)
	assert.Equal(t, models.OrderStatusPending, first.Status)

	second := &models.Order{Reference: "ref-2", UserID: 1, Total: 10,
		Address: "12 rue des Oliviers", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, s.CreateOrder(ctx, second))

	autre := &models.Order{Reference: "ref-3", UserID: 2, Total: 7,
		Address: "3 avenue du Port", CreatedAt: base.Add(2 * time.Hour)}
	require.NoError(t, s.CreateOrder(ctx, autre))

	got, err := s.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Couscous", got.Items[0].Name)
	assert.Equal(t, 13.0, got.Items[0].Price)
	assert.Equal(t, 28.5, got.Total)

	_, err = s.GetOrder(ctx, 9999)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Plus récentes en premier
	mine, err := s.ListOrdersByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "ref-2", mine[0].Reference)
	assert.Equal(t, "ref-1", mine[1].Reference)

	// Une commande sans lignes renvoie une liste vide, jamais nil
	assert.NotNil(t, mine[0].Items)
	assert.Empty(t, mine[0].Items)

	all, err := s.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ref-3", all[0].Reference)

	require.NoError(t, s.UpdateOrderStatus(ctx, autre.ID, models.OrderStatusPreparing))
	preparing, err := s.ListOrders(ctx, models.OrderStatusPreparing)
	require.NoError(t, err)
	require.Len(t, preparing, 1)
	assert.Equal(t, "ref-3", preparing[0].Reference)
}

func testOrderStatus(t *testing.T, s storage.Store) {
	ctx := context.Background()

	o := &models.Order{Reference: "ref", UserID: 1, Total: 5, Address: "ici"}
	require.NoError(t, s.CreateOrder(ctx, o))

	// Les sauts de statut sont refusés
	err := s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusDelivered)
	require.ErrorIs(t, err, storage.ErrInvalidTransition)

	require.NoError(t, s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusPreparing))
	require.NoError(t, s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusOutForDelivery))

	// Plus d'annulation possible une fois la commande partie
	err = s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled)
	require.ErrorIs(t, err, storage.ErrInvalidTransition)

	require.NoError(t, s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusDelivered))

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)
	assert.NotNil(t, got.Items)

	require.ErrorIs(t, s.UpdateOrderStatus(ctx, 9999, models.OrderStatusPreparing), storage.ErrNotFound)
}
