package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Skotchmaster/bubba_express/services/audit/internal/models"
)

const Collection = "order_status_audit"

type Storage struct {
	client   *mongo.Client
	database *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxPoolSize(50))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Storage{client: client, database: client.Database(database)}, nil
}

func (s *Storage) Database() *mongo.Database {
	return s.database
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) CreateIndexes(ctx context.Context) error {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
	}
	if _, err := s.database.Collection(Collection).Indexes().CreateMany(ctx, idx); err != nil {
		return fmt.Errorf("create %s indexes: %w", Collection, err)
	}
	return nil
}

type AuditRepository struct {
	collection *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{collection: db.Collection(Collection)}
}

func (r *AuditRepository) Create(ctx context.Context, a *models.OrderStatusAudit) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert order audit: %w", err)
	}
	return nil
}

// ListByOrderID returns the newest entries first.
func (r *AuditRepository) ListByOrderID(ctx context.Context, orderID string, limit int) ([]models.OrderStatusAudit, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.collection.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find order audit: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.OrderStatusAudit{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode order audit: %w", err)
	}
	return out, nil
}
