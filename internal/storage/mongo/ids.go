package mongo

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodcourt_back_end/internal/storage"
)

// Réconciliation d'identifiants : l'application travaille avec des IDs
// numériques auto-incrémentés, MongoDB avec des ObjectID. Chaque document
// porte les deux : `_id` (ObjectID) et `id` (numérique, alloué depuis la
// collection `counters`). Les documents hérités qui n'ont qu'un ObjectID
// reçoivent un id numérique au démarrage.

// nextID alloue le prochain id numérique pour une collection donnée
// (findOneAndUpdate $inc avec upsert, valeur retournée après incrément).
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	res := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After))

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := res.Decode(&counter); err != nil {
		return 0, fmt.Errorf("allocation id pour %s: %w", name, err)
	}
	return counter.Seq, nil
}

// reconcileIDs comble les ids numériques manquants d'une collection et
// remonte le compteur au-dessus du maximum observé.
func (s *Store) reconcileIDs(ctx context.Context, name string) error {
	coll := s.db.Collection(name)

	// 1. Backfill des documents sans id numérique
	cursor, err := coll.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"id": bson.M{"$exists": false}},
		bson.M{"id": int64(0)},
	}})
	if err != nil {
		return fmt.Errorf("recherche documents sans id (%s): %w", name, err)
	}
	defer cursor.Close(ctx)

	backfilled := 0
	for cursor.Next(ctx) {
		var doc struct {
			OID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		id, err := s.nextID(ctx, name)
		if err != nil {
			return err
		}
		if _, err := coll.UpdateOne(ctx,
			bson.M{"_id": doc.OID},
			bson.M{"$set": bson.M{"id": id}}); err != nil {
			return fmt.Errorf("backfill id (%s): %w", name, err)
		}
		backfilled++
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	if backfilled > 0 {
		log.Printf("🔄 %d document(s) réconcilié(s) dans %s", backfilled, name)
	}

	// 2. Le compteur ne doit jamais redescendre sous le max existant
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}})
	var top struct {
		ID int64 `bson:"id"`
	}
	err = coll.FindOne(ctx, bson.M{}, opts).Decode(&top)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.db.Collection(countersCollection).UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": top.ID}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ajustement compteur (%s): %w", name, err)
	}
	return nil
}

// ResolveNumericID traduit un ObjectID Mongo vers l'id numérique applicatif.
func (s *Store) ResolveNumericID(ctx context.Context, collection string, oid primitive.ObjectID) (int64, error) {
	var doc struct {
		ID int64 `bson:"id"`
	}
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return doc.ID, nil
}

// ResolveObjectID traduit un id numérique applicatif vers l'ObjectID Mongo.
func (s *Store) ResolveObjectID(ctx context.Context, collection string, id int64) (primitive.ObjectID, error) {
	var doc struct {
		OID primitive.ObjectID `bson:"_id"`
	}
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return doc.OID, nil
}
