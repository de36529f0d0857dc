package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Users          *mongo.Collection
	Barbershops    *mongo.Collection
	Barbers        *mongo.Collection
	Services       *mongo.Collection
	Appointments   *mongo.Collection
	ClientHistory  *mongo.Collection
	PushTokens     *mongo.Collection
	Deposits       *mongo.Collection
	Wallets        *mongo.Collection
	LoyaltyEntries *mongo.Collection
	LoyaltyRules   *mongo.Collection
	AIScans        *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	db := client.Database(dbName)

	cols := &Collections{
		Users:          db.Collection("users"),
		Barbershops:    db.Collection("barbershops"),
		Barbers:        db.Collection("barbers"),
		Services:       db.Collection("services"),
		Appointments:   db.Collection("appointments"),
		ClientHistory:  db.Collection("client_history"),
		PushTokens:     db.Collection("push_tokens"),
		Deposits:       db.Collection("deposits"),
		Wallets:        db.Collection("wallets"),
		LoyaltyEntries: db.Collection("loyalty_entries"),
		LoyaltyRules:   db.Collection("loyalty_rules"),
		AIScans:        db.Collection("ai_scans"),
	}

	return client, cols, nil
}

func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Services.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shop_id", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Appointments.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_time", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "client_user_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "shop_id", Value: 1}, {Key: "scheduled_time", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	// The unique key makes "credit once per source event" an atomic insert:
	// a duplicate-key error on loyalty_entries means the accrual already
	// happened and must be skipped.
	_, err = cols.LoyaltyEntries.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "type", Value: 1}, {Key: "source_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.PushTokens.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.AIScans.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Users.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "referral_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}
