package payments

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"astromania_back_end/internal/models"
)

// IntentStore persiste les intentions de commande. Le store ne déduplique
// pas lui-même : la garde d'idempotence est dans la réconciliation.
type IntentStore interface {
	Create(ctx context.Context, intent *models.OrderIntent) error
	FindByExternalReference(ctx context.Context, ref string) (*models.OrderIntent, error)
	SetPreferenceID(ctx context.Context, id primitive.ObjectID, preferenceID string) error
	// AppendStatus ajoute une entrée d'historique ; si newStatus est non
	// vide, le statut courant et le payment_id sont mis à jour en même temps.
	AppendStatus(ctx context.Context, id primitive.ObjectID, entry models.StatusEntry, newStatus, paymentID string) (*models.OrderIntent, error)
}

// MongoIntentStore est l'implémentation MongoDB, une intention par document,
// index unique secondaire sur external_reference.
type MongoIntentStore struct {
	col *mongo.Collection
}

func NewMongoIntentStore(db *mongo.Database) *MongoIntentStore {
	return &MongoIntentStore{col: db.Collection("order_intents")}
}

// EnsureIndexes crée l'index unique sur external_reference
func (s *MongoIntentStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "external_reference", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoIntentStore) Create(ctx context.Context, intent *models.OrderIntent) error {
	if intent.ID.IsZero() {
		intent.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, intent)
	return err
}

func (s *MongoIntentStore) FindByExternalReference(ctx context.Context, ref string) (*models.OrderIntent, error) {
	var intent models.OrderIntent
	err := s.col.FindOne(ctx, bson.M{"external_reference": ref}).Decode(&intent)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (s *MongoIntentStore) SetPreferenceID(ctx context.Context, id primitive.ObjectID, preferenceID string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"gateway_preference_id": preferenceID,
		"updated_at":            time.Now(),
	}})
	return err
}

func (s *MongoIntentStore) AppendStatus(ctx context.Context, id primitive.ObjectID, entry models.StatusEntry, newStatus, paymentID string) (*models.OrderIntent, error) {
	set := bson.M{"updated_at": entry.At}
	if newStatus != "" {
		set["status"] = newStatus
	}
	if paymentID != "" {
		set["gateway_payment_id"] = paymentID
	}

	update := bson.M{
		"$push": bson.M{"status_history": entry},
		"$set":  set,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.OrderIntent
	if err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
