package deposits

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, deposit Deposit) error
	GetByID(ctx context.Context, id string) (Deposit, error)
	UpdateStatus(ctx context.Context, id, status, paymentURL string, now time.Time) (Deposit, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, deposit Deposit) error {
	_, err := r.col.InsertOne(ctx, deposit)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Deposit, error) {
	var deposit Deposit
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&deposit); err != nil {
		return Deposit{}, err
	}
	return deposit, nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id, status, paymentURL string, now time.Time) (Deposit, error) {
	set := bson.M{
		"status":     status,
		"updated_at": now,
	}
	if paymentURL != "" {
		set["payment_url"] = paymentURL
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Deposit
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return Deposit{}, err
	}
	return updated, nil
}
