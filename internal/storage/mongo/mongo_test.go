package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
	mongostore "foodcourt_back_end/internal/storage/mongo"
	"foodcourt_back_end/internal/storage/storetest"
)

// Les tests Mongo demandent un serveur réel : ils tournent quand MONGO_URI
// est défini et sont sautés sinon.
func mongoURI(t *testing.T) string {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI non défini, test Mongo sauté")
	}
	return uri
}

func dropDatabase(t *testing.T, uri, dbName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err == nil {
		_ = client.Database(dbName).Drop(ctx)
		_ = client.Disconnect(ctx)
	}
}

func TestMongoStore(t *testing.T) {
	uri := mongoURI(t)
	storetest.Run(t, func(t *testing.T) storage.Store {
		dbName := fmt.Sprintf("foodcourt_test_%d", time.Now().UnixNano())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s, err := mongostore.Open(ctx, uri, dbName)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.Close()
			dropDatabase(t, uri, dbName)
		})
		return s
	})
}

// Vérifie la passe de réconciliation : un document hérité qui ne porte qu'un
// ObjectID reçoit un id numérique à l'ouverture, le compteur passe au-dessus
// du max existant, et les traductions ObjectID ↔ id marchent dans les deux sens.
func TestMongoIDReconciliation(t *testing.T) {
	uri := mongoURI(t)
	dbName := fmt.Sprintf("foodcourt_reconcile_%d", time.Now().UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { dropDatabase(t, uri, dbName) })
	defer client.Disconnect(context.Background())

	coll := client.Database(dbName).Collection("menu_items")
	legacy, err := coll.InsertOne(ctx, bson.M{"name": "Plat hérité", "price": 9.0, "available": true})
	require.NoError(t, err)
	_, err = coll.InsertOne(ctx, bson.M{"id": int64(50), "name": "Plat migré", "price": 11.0, "available": true})
	require.NoError(t, err)

	s, err := mongostore.Open(ctx, uri, dbName)
	require.NoError(t, err)
	defer s.Close()

	legacyOID := legacy.InsertedID.(primitive.ObjectID)

	numID, err := s.ResolveNumericID(ctx, "menu_items", legacyOID)
	require.NoError(t, err)
	require.NotZero(t, numID)

	oid, err := s.ResolveObjectID(ctx, "menu_items", numID)
	require.NoError(t, err)
	assert.Equal(t, legacyOID, oid)

	// Le plat réconcilié est accessible par son id numérique via le contrat
	item, err := s.GetMenuItem(ctx, numID)
	require.NoError(t, err)
	assert.Equal(t, "Plat hérité", item.Name)

	// Les nouvelles insertions dépassent le max observé
	nouveau := &models.MenuItem{Name: "Nouveau plat", Price: 5, Available: true}
	require.NoError(t, s.CreateMenuItem(ctx, nouveau))
	assert.Greater(t, nouveau.ID, int64(50))
}
