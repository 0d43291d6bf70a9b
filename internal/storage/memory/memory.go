// Package memory est le backend de persistance en mémoire : des maps, des
// compteurs auto-incrémentés et un seul mutex. C'est le backend par défaut
// et celui utilisé par les tests des handlers.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
)

type Store struct {
	mu sync.Mutex

	users     map[int64]*models.User
	menuItems map[int64]*models.MenuItem
	cartItems map[int64]*models.CartItem
	orders    map[int64]*models.Order

	nextUserID     int64
	nextMenuItemID int64
	nextCartItemID int64
	nextOrderID    int64
}

func New() *Store {
	return &Store{
		users:     make(map[int64]*models.User),
		menuItems: make(map[int64]*models.MenuItem),
		cartItems: make(map[int64]*models.CartItem),
		orders:    make(map[int64]*models.Order),
	}
}

// =============================================
// UTILISATEURS
// =============================================

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return storage.ErrEmailTaken
		}
	}

	s.nextUserID++
	u.ID = s.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) SetAdmin(_ context.Context, id int64, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

// =============================================
// MENU
// =============================================

func (s *Store) CreateMenuItem(_ context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMenuItemID++
	item.ID = s.nextMenuItemID
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	clone := *item
	s.menuItems[item.ID] = &clone
	return nil
}

func (s *Store) GetMenuItem(_ context.Context, id int64) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.menuItems[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (s *Store) ListMenuItems(_ context.Context, filter storage.MenuFilter) ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.MenuItem, 0, len(s.menuItems))
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	for _, item := range s.menuItems {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.OnlyAvailable && !item.Available {
			continue
		}
		if query != "" {
			haystack := strings.ToLower(item.Name + " " + item.Description)
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		items = append(items, *item)
	}

	sortMenuItems(items, filter.SortBy)
	return paginate(items, filter.Limit, filter.Offset), nil
}

func sortMenuItems(items []models.MenuItem, sortBy string) {
	switch sortBy {
	case storage.SortPopularity:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Popularity > items[j].Popularity })
	case storage.SortRating:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Rating() > items[j].Rating() })
	case storage.SortPrice:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	}
}

func paginate(items []models.MenuItem, limit, offset int) []models.MenuItem {
	if offset > 0 {
		if offset >= len(items) {
			return []models.MenuItem{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *Store) UpdateMenuItem(_ context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.menuItems[item.ID]
	if !ok {
		return storage.ErrNotFound
	}

	// Les compteurs appartiennent au serveur, pas à l'appelant
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	item.Popularity = existing.Popularity
	item.RatingSum = existing.RatingSum
	item.RatingCount = existing.RatingCount
	clone := *item
	s.menuItems[item.ID] = &clone
	return nil
}

func (s *Store) DeleteMenuItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menuItems[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.menuItems, id)

	// Un plat supprimé disparaît aussi des paniers
	for cartID, ci := range s.cartItems {
		if ci.MenuItemID == id {
			delete(s.cartItems, cartID)
		}
	}
	return nil
}

func (s *Store) BumpPopularity(_ context.Context, id int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.menuItems[id]
	if !ok {
		return storage.ErrNotFound
	}
	item.Popularity += delta
	return nil
}

func (s *Store) RateMenuItem(_ context.Context, id int64, stars int) error {
	if stars < 1 || stars > 5 {
		return storage.ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.menuItems[id]
	if !ok {
		return storage.ErrNotFound
	}
	item.RatingSum += stars
	item.RatingCount++
	return nil
}

// =============================================
// PANIER
// =============================================

func (s *Store) UpsertCartItem(_ context.Context, userID, menuItemID int64, quantity int) error {
	if quantity <= 0 {
		return storage.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menuItems[menuItemID]; !ok {
		return storage.ErrNotFound
	}

	for _, ci := range s.cartItems {
		if ci.UserID == userID && ci.MenuItemID == menuItemID {
			ci.Quantity = quantity
			return nil
		}
	}

	s.nextCartItemID++
	s.cartItems[s.nextCartItemID] = &models.CartItem{
		ID:         s.nextCartItemID,
		UserID:     userID,
		MenuItemID: menuItemID,
		Quantity:   quantity,
	}
	return nil
}

func (s *Store) ListCart(_ context.Context, userID int64) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []models.CartItem{}
	for _, ci := range s.cartItems {
		if ci.UserID == userID {
			items = append(items, *ci)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) RemoveCartItem(_ context.Context, userID, menuItemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for cartID, ci := range s.cartItems {
		if ci.UserID == userID && ci.MenuItemID == menuItemID {
			delete(s.cartItems, cartID)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) ClearCart(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for cartID, ci := range s.cartItems {
		if ci.UserID == userID {
			delete(s.cartItems, cartID)
		}
	}
	return nil
}

// =============================================
// COMMANDES
// =============================================

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextOrderID++
	o.ID = s.nextOrderID
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	clone := *o
	clone.Items = append([]models.OrderItem{}, o.Items...)
	s.orders[o.ID] = &clone
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *o
	clone.Items = append([]models.OrderItem{}, o.Items...)
	return &clone, nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := []models.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			clone := *o
			clone.Items = append([]models.OrderItem{}, o.Items...)
			orders = append(orders, clone)
		}
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (s *Store) ListOrders(_ context.Context, status string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := []models.Order{}
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		clone := *o
		clone.Items = append([]models.OrderItem{}, o.Items...)
		orders = append(orders, clone)
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func sortOrdersNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func (s *Store) UpdateOrderStatus(_ context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return storage.ErrNotFound
	}
	if !models.ValidStatusTransition(o.Status, status) {
		return storage.ErrInvalidTransition
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) Close() error { return nil }
