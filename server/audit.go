package server

import (
	"context"
	"time"

	"github.com/example/worldpeas/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// AuditLog records back-office mutations in MongoDB. Writes are best effort;
// a down audit store never fails a request.
type AuditLog struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

type auditEntry struct {
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	EntityID  string    `bson:"entity_id"`
	Data      bson.M    `bson:"data,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewAuditLog(cfg *config.MongoDBConfig, logger *zap.Logger) (*AuditLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &AuditLog{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

func (a *AuditLog) record(action, entityID string, data map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := auditEntry{
		Service:   "storefront-api",
		Action:    action,
		EntityID:  entityID,
		Data:      bson.M(data),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := a.collection.InsertOne(ctx, entry); err != nil {
		a.logger.Warn("Failed to write audit entry",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

// Entries returns the newest audit entries for one entity.
func (a *AuditLog) Entries(ctx context.Context, entityID string, limit int64) ([]bson.M, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := a.collection.Find(ctx, bson.M{"entity_id": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []bson.M
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (a *AuditLog) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

// recordAudit fires an audit write without blocking the request path.
func (s *Server) recordAudit(action, entityID string, data map[string]interface{}) {
	if s.audit == nil {
		return
	}
	go s.audit.record(action, entityID, data)
}
