package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voucher-service/internal/domain/entity"
	"voucher-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDocumentRepository archives converted vouchers. MongoDB drops them
// through a TTL index once the session lifetime has passed.
type MongoDocumentRepository struct {
	collection *mongo.Collection
}

// NewMongoDocumentRepository creates the archive and its indexes
func NewMongoDocumentRepository(ctx context.Context, db *mongo.Database, ttl time.Duration) (repository.DocumentRepository, error) {
	collection := db.Collection("voucherDocuments")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"sessionId": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.M{"createdAt": 1},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl / time.Second)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create document indexes: %w", err)
	}

	return &MongoDocumentRepository{collection: collection}, nil
}

// Save upserts a document by session id
func (r *MongoDocumentRepository) Save(ctx context.Context, doc *entity.VoucherDocument) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"sessionId": doc.SessionID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.SessionID, err)
	}
	return nil
}

// FindBySessionID returns nil, nil when the session was never archived or has expired
func (r *MongoDocumentRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.VoucherDocument, error) {
	var doc entity.VoucherDocument
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}
