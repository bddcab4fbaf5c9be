package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sessionRecord struct {
	Key      string    `bson:"_id"`
	Value    string    `bson:"value"`
	ExpireAt time.Time `bson:"expire_at"`
}

// EnsureSessionIndex creates the TTL index that lets the server purge
// expired sessions.
func (m *MongoDB) EnsureSessionIndex(ctx context.Context) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(sessionsCollection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expire_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("mongodb create index error: %w", err)
	}
	return nil
}

// Put stores value under key until ttl elapses.
func (m *MongoDB) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(sessionsCollection)
	record := sessionRecord{
		Key:      key,
		Value:    string(value),
		ExpireAt: time.Now().Add(ttl),
	}
	filter := bson.D{{Key: "_id", Value: key}}
	update := bson.M{"$set": record}

	_, err = collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb upsert error: %w", err)
	}
	return nil
}

// Fetch returns nil for missing keys and for records past their expiry
// that the TTL monitor has not removed yet.
func (m *MongoDB) Fetch(ctx context.Context, key string) ([]byte, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(sessionsCollection)
	filter := bson.D{{Key: "_id", Value: key}}

	var record sessionRecord
	err = collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		return nil, m.findError(err)
	}
	if !record.ExpireAt.After(time.Now()) {
		m.log.Debug("session expired", slog.String("key", key))
		return nil, nil
	}
	return []byte(record.Value), nil
}

func (m *MongoDB) Remove(ctx context.Context, key string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(sessionsCollection)
	_, err = collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}})
	if err != nil {
		return fmt.Errorf("mongodb delete error: %w", err)
	}
	return nil
}
