// internal/interface/repository/email_repo.go
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

// staleProcessingAfter is how long a mail may sit in PROCESSING before reset
const staleProcessingAfter = 5 * time.Minute

// MongoEmailRepository keeps the mailbox ingestion log
type MongoEmailRepository struct {
	collection *mongo.Collection
}

// NewMongoEmailRepository creates a new MongoDB mail log repository
func NewMongoEmailRepository(ctx context.Context, db *mongo.Database) (repository.EmailRepository, error) {
	collection := db.Collection("voucherMailLogs")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"emailId": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.M{"receivedAt": -1},
		},
		// unprocessed scan
		{
			Keys: bson.D{
				{Key: "processStatus", Value: 1},
				{Key: "receivedAt", Value: 1},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create mail log indexes: %w", err)
	}

	return &MongoEmailRepository{collection: collection}, nil
}

// Save saves an email to MongoDB
func (r *MongoEmailRepository) Save(ctx context.Context, email *entity.Email) error {
	if email.ProcessStatus == "" {
		email.ProcessStatus = entity.StatusPending
	}

	_, err := r.collection.InsertOne(ctx, email)
	return err
}

// FindUnprocessed returns PENDING mails, oldest first
func (r *MongoEmailRepository) FindUnprocessed(ctx context.Context, limit int) ([]*entity.Email, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"processStatus": ""},
			{"processStatus": entity.StatusPending},
			{"processStatus": bson.M{"$exists": false}},
		},
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "receivedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var emails []*entity.Email
	if err := cursor.All(ctx, &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// ResetProcessingEmails puts mails stuck in PROCESSING back to PENDING
func (r *MongoEmailRepository) ResetProcessingEmails(ctx context.Context) error {
	filter := bson.M{
		"processStatus": entity.StatusProcessing,
		"$or": []bson.M{
			{"processStartedAt": bson.M{"$lt": time.Now().Add(-staleProcessingAfter)}},
			{"processStartedAt": bson.M{"$exists": false}},
		},
	}

	update := bson.M{
		"$set": bson.M{
			"processStatus": entity.StatusPending,
			"errorDetail":   "Reset from stale PROCESSING state",
		},
	}

	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// GetLastEmail gets the most recently received email
func (r *MongoEmailRepository) GetLastEmail(ctx context.Context) (*entity.Email, error) {
	var email entity.Email
	opts := options.FindOne().SetSort(bson.D{{Key: "receivedAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

// FindByEmailIDs finds multiple emails by Gmail message IDs (batch operation)
func (r *MongoEmailRepository) FindByEmailIDs(ctx context.Context, emailIDs []string) (map[string]*entity.Email, error) {
	result := make(map[string]*entity.Email)
	if len(emailIDs) == 0 {
		return result, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"emailId": bson.M{"$in": emailIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var email entity.Email
		if err := cursor.Decode(&email); err != nil {
			continue
		}
		result[email.EmailID] = &email
	}
	return result, cursor.Err()
}

func (r *MongoEmailRepository) UpdateStatusByEmailID(ctx context.Context, emailID string, status string, startedAt time.Time) error {
	set := bson.M{"processStatus": status}
	if status == entity.StatusProcessing && !startedAt.IsZero() {
		set["processStartedAt"] = startedAt
	}
	return r.updateOne(ctx, emailID, set)
}

func (r *MongoEmailRepository) MarkAsProcessedByEmailID(ctx context.Context, emailID, status, processorType, errorDetail string, extractedData map[string]interface{}) error {
	set := bson.M{
		"processedAt":   time.Now(),
		"processStatus": status,
		"processorType": processorType,
	}
	if len(extractedData) > 0 {
		set["extractedData"] = extractedData
	}
	if errorDetail != "" {
		set["errorDetail"] = errorDetail
	}
	return r.updateOne(ctx, emailID, set)
}

func (r *MongoEmailRepository) UpdateProcessStepsByEmailID(ctx context.Context, emailID string, steps entity.ProcessSteps) error {
	return r.updateOne(ctx, emailID, bson.M{"processSteps": steps})
}

func (r *MongoEmailRepository) updateOne(ctx context.Context, emailID string, set bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"emailId": emailID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update mail %s: %w", emailID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("no document found with emailID: %s", emailID)
	}
	return nil
}
