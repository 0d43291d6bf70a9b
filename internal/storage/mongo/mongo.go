// Package mongo est le backend document : collections MongoDB avec
// traduction entre IDs numériques applicatifs et ObjectID (voir ids.go).
package mongo

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
)

const (
	usersCollection    = "users"
	menuCollection     = "menu_items"
	cartCollection     = "cart_items"
	ordersCollection   = "orders"
	countersCollection = "counters"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open se connecte à MongoDB, pose les index et lance la passe de
// réconciliation des ids numériques.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connexion MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	for _, name := range []string{usersCollection, menuCollection, cartCollection, ordersCollection} {
		if err := s.reconcileIDs(ctx, name); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("réconciliation %s: %w", name, err)
		}
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("index email: %w", err)
	}

	for _, name := range []string{usersCollection, menuCollection, cartCollection, ordersCollection} {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"id": bson.M{"$exists": true}}),
		})
		if err != nil {
			return fmt.Errorf("index id (%s): %w", name, err)
		}
	}

	// Invariant panier : une seule ligne par couple (utilisateur, plat)
	_, err = s.db.Collection(cartCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "menu_item_id", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("index panier: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func emailFilter(email string) bson.M {
	return bson.M{"email": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(email) + "$",
		Options: "i",
	}}
}

// =============================================
// UTILISATEURS
// =============================================

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	coll := s.db.Collection(usersCollection)

	n, err := coll.CountDocuments(ctx, emailFilter(u.Email))
	if err != nil {
		return err
	}
	if n > 0 {
		return storage.ErrEmailTaken
	}

	if u.ID, err = s.nextID(ctx, usersCollection); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	if _, err := coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("insertion utilisateur: %w", err)
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, bson.M{"id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, emailFilter(email))
}

func (s *Store) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	res, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"is_admin": isAdmin}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// =============================================
// MENU
// =============================================

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	var err error
	if item.ID, err = s.nextID(ctx, menuCollection); err != nil {
		return err
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	if _, err := s.db.Collection(menuCollection).InsertOne(ctx, item); err != nil {
		return fmt.Errorf("insertion plat: %w", err)
	}
	return nil
}

func (s *Store) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.Collection(menuCollection).FindOne(ctx, bson.M{"id": id}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMenuItems(ctx context.Context, filter storage.MenuFilter) ([]models.MenuItem, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.OnlyAvailable {
		query["available"] = true
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
		}
	}

	opts := options.Find()
	clientSort := false
	switch filter.SortBy {
	case storage.SortPopularity:
		opts.SetSort(bson.D{{Key: "popularity", Value: -1}, {Key: "id", Value: 1}})
	case storage.SortPrice:
		opts.SetSort(bson.D{{Key: "price", Value: 1}, {Key: "id", Value: 1}})
	case storage.SortRating:
		// La note moyenne est dérivée de deux champs, on trie côté client
		clientSort = true
	default:
		opts.SetSort(bson.D{{Key: "id", Value: 1}})
	}
	if !clientSort {
		if filter.Offset > 0 {
			opts.SetSkip(int64(filter.Offset))
		}
		if filter.Limit > 0 {
			opts.SetLimit(int64(filter.Limit))
		}
	}

	cursor, err := s.db.Collection(menuCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("liste du menu: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.MenuItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	if clientSort {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Rating() > items[j].Rating() })
		if filter.Offset > 0 {
			if filter.Offset >= len(items) {
				return []models.MenuItem{}, nil
			}
			items = items[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(items) {
			items = items[:filter.Limit]
		}
	}
	return items, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	item.UpdatedAt = time.Now().UTC()

	res, err := s.db.Collection(menuCollection).UpdateOne(ctx,
		bson.M{"id": item.ID},
		bson.M{"$set": bson.M{
			"name":        item.Name,
			"description": item.Description,
			"price":       item.Price,
			"category":    item.Category,
			"image_url":   item.ImageURL,
			"available":   item.Available,
			"updated_at":  item.UpdatedAt,
		}})
	if err != nil {
		return fmt.Errorf("mise à jour plat: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	res, err := s.db.Collection(menuCollection).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}

	// Un plat supprimé disparaît aussi des paniers
	_, err = s.db.Collection(cartCollection).DeleteMany(ctx, bson.M{"menu_item_id": id})
	return err
}

func (s *Store) BumpPopularity(ctx context.Context, id int64, delta int) error {
	res, err := s.db.Collection(menuCollection).UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$inc": bson.M{"popularity": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) RateMenuItem(ctx context.Context, id int64, stars int) error {
	if stars < 1 || stars > 5 {
		return storage.ErrInvalidRating
	}
	res, err := s.db.Collection(menuCollection).UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$inc": bson.M{"rating_sum": stars, "rating_count": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// =============================================
// PANIER
// =============================================

func (s *Store) UpsertCartItem(ctx context.Context, userID, menuItemID int64, quantity int) error {
	if quantity <= 0 {
		return storage.ErrInvalidQuantity
	}

	n, err := s.db.Collection(menuCollection).CountDocuments(ctx, bson.M{"id": menuItemID})
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	coll := s.db.Collection(cartCollection)
	res, err := coll.UpdateOne(ctx,
		bson.M{"user_id": userID, "menu_item_id": menuItemID},
		bson.M{"$set": bson.M{"quantity": quantity}})
	if err != nil {
		return fmt.Errorf("mise à jour panier: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	id, err := s.nextID(ctx, cartCollection)
	if err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, models.CartItem{
		ID:         id,
		UserID:     userID,
		MenuItemID: menuItemID,
		Quantity:   quantity,
	})
	if err != nil {
		return fmt.Errorf("insertion ligne panier: %w", err)
	}
	return nil
}

func (s *Store) ListCart(ctx context.Context, userID int64) ([]models.CartItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := s.db.Collection(cartCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.CartItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, menuItemID int64) error {
	res, err := s.db.Collection(cartCollection).DeleteOne(ctx,
		bson.M{"user_id": userID, "menu_item_id": menuItemID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	_, err := s.db.Collection(cartCollection).DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// =============================================
// COMMANDES
// =============================================

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	var err error
	if o.ID, err = s.nextID(ctx, ordersCollection); err != nil {
		return err
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	if _, err := s.db.Collection(ordersCollection).InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insertion commande: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	err := s.db.Collection(ordersCollection).FindOne(ctx, bson.M{"id": id}).Decode(&o)
	if err == mongo.ErrNoDocuments {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items == nil {
		o.Items = []models.OrderItem{}
	}
	return &o, nil
}

func (s *Store) listOrders(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: -1}})
	cursor, err := s.db.Collection(ordersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("liste des commandes: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return orders, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.listOrders(ctx, bson.M{"user_id": userID})
}

func (s *Store) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.listOrders(ctx, filter)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if !models.ValidStatusTransition(o.Status, status) {
		return storage.ErrInvalidTransition
	}

	_, err = s.db.Collection(ordersCollection).UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	return err
}
