package loyalty

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"barbershop-backend/internal/models"
)

// ErrDuplicateEntry reports that a history entry for the same (user, type,
// source) already exists; the accrual it would back has already happened.
var ErrDuplicateEntry = errors.New("loyalty entry already exists")

// ErrCodeTaken reports a referral-code collision on the unique index.
var ErrCodeTaken = errors.New("referral code already taken")

type Repository interface {
	InsertEntry(ctx context.Context, entry Entry) error
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, userID string) ([]Entry, error)
	AddPoints(ctx context.Context, userID string, points int, now time.Time) (Wallet, error)
	GetWallet(ctx context.Context, userID string) (Wallet, error)
	SetWalletReferrer(ctx context.Context, userID, referrerID string, now time.Time) error

	GetRules(ctx context.Context) (Rules, error)
	UpdateRules(ctx context.Context, rules Rules) error

	GetUser(ctx context.Context, id string) (models.User, error)
	FindUserByReferralCode(ctx context.Context, code string) (models.User, error)
	SetUserReferredBy(ctx context.Context, userID, referrerID string) error
	SetUserReferralCode(ctx context.Context, userID, code string) error
}

type MongoRepository struct {
	wallets *mongo.Collection
	entries *mongo.Collection
	rules   *mongo.Collection
	users   *mongo.Collection
}

func NewRepository(wallets, entries, rules, users *mongo.Collection) *MongoRepository {
	return &MongoRepository{
		wallets: wallets,
		entries: entries,
		rules:   rules,
		users:   users,
	}
}

// InsertEntry is the atomic idempotency primitive: the unique index on
// (user_id, type, source_id) turns a second insert for the same source
// event into ErrDuplicateEntry.
func (r *MongoRepository) InsertEntry(ctx context.Context, entry Entry) error {
	_, err := r.entries.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEntry
	}
	return err
}

// DeleteEntry compensates a failed accrual: when the wallet bump after an
// insert does not go through, removing the entry keeps the operation
// retryable instead of reading as already credited.
func (r *MongoRepository) DeleteEntry(ctx context.Context, id string) error {
	_, err := r.entries.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoRepository) ListEntries(ctx context.Context, userID string) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.entries.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Entry, 0)
	for cursor.Next(ctx) {
		var entry Entry
		if err := cursor.Decode(&entry); err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) AddPoints(ctx context.Context, userID string, points int, now time.Time) (Wallet, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.M{
		"$inc": bson.M{"points": points},
		"$set": bson.M{"updated_at": now},
	}

	var wallet Wallet
	if err := r.wallets.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&wallet); err != nil {
		return Wallet{}, err
	}
	return wallet, nil
}

func (r *MongoRepository) GetWallet(ctx context.Context, userID string) (Wallet, error) {
	var wallet Wallet
	if err := r.wallets.FindOne(ctx, bson.M{"_id": userID}).Decode(&wallet); err != nil {
		return Wallet{}, err
	}
	return wallet, nil
}

func (r *MongoRepository) SetWalletReferrer(ctx context.Context, userID, referrerID string, now time.Time) error {
	opts := options.Update().SetUpsert(true)
	update := bson.M{
		"$set": bson.M{"referred_by": referrerID, "updated_at": now},
	}
	_, err := r.wallets.UpdateOne(ctx, bson.M{"_id": userID}, update, opts)
	return err
}

func (r *MongoRepository) GetRules(ctx context.Context) (Rules, error) {
	var rules Rules
	err := r.rules.FindOne(ctx, bson.M{"_id": RulesDocID}).Decode(&rules)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return DefaultRules(), nil
	}
	if err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r *MongoRepository) UpdateRules(ctx context.Context, rules Rules) error {
	rules.ID = RulesDocID
	opts := options.Replace().SetUpsert(true)
	_, err := r.rules.ReplaceOne(ctx, bson.M{"_id": RulesDocID}, rules, opts)
	return err
}

func (r *MongoRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *MongoRepository) FindUserByReferralCode(ctx context.Context, code string) (models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"referral_code": code}).Decode(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *MongoRepository) SetUserReferredBy(ctx context.Context, userID, referrerID string) error {
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"referred_by": referrerID}})
	return err
}

func (r *MongoRepository) SetUserReferralCode(ctx context.Context, userID, code string) error {
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"referral_code": code}})
	if mongo.IsDuplicateKeyError(err) {
		return ErrCodeTaken
	}
	return err
}
