package appointments

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, appointment Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)
	List(ctx context.Context, filter ListFilter, limit int64) ([]Appointment, error)
	Update(ctx context.Context, id string, set bson.M, now time.Time) (Appointment, error)
	Delete(ctx context.Context, id string) error
	Reschedule(ctx context.Context, id string, newTime time.Time, notes string, now time.Time) (Appointment, error)
	ListUpcoming(ctx context.Context, now time.Time, horizon time.Duration, limit int64) ([]Appointment, error)
	MarkWindowSent(ctx context.Context, id string, set bson.M, now time.Time) error
	SetDepositFields(ctx context.Context, id, depositStatus, depositID string, amount float64, now time.Time) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, appointment Appointment) error {
	_, err := r.col.InsertOne(ctx, appointment)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Appointment, error) {
	var appointment Appointment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment); err != nil {
		return Appointment{}, err
	}
	return appointment, nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit int64) ([]Appointment, error) {
	query := bson.M{}
	if filter.ClientUserID != "" {
		query["client_user_id"] = filter.ClientUserID
	}
	if filter.BarberID != "" {
		query["barber_id"] = filter.BarberID
	}
	if filter.ShopID != "" {
		query["shop_id"] = filter.ShopID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_time", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Appointment, 0)
	for cursor.Next(ctx) {
		var appointment Appointment
		if err := cursor.Decode(&appointment); err != nil {
			return nil, err
		}
		items = append(items, appointment)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, set bson.M, now time.Time) (Appointment, error) {
	set["updated_at"] = now
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Appointment
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return Appointment{}, err
	}
	return updated, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Reschedule moves the slot, reopens the appointment and clears every
// reminder flag so the new time regains reminder eligibility.
func (r *MongoRepository) Reschedule(ctx context.Context, id string, newTime time.Time, notes string, now time.Time) (Appointment, error) {
	set := bson.M{
		"scheduled_time":    newTime,
		"status":            StatusScheduled,
		"reminder_sent":     false,
		"reminder_24h_sent": false,
		"reminder_2h_sent":  false,
		"notes":             notes,
		"updated_at":        now,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Appointment
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return Appointment{}, err
	}
	return updated, nil
}

func (r *MongoRepository) ListUpcoming(ctx context.Context, now time.Time, horizon time.Duration, limit int64) ([]Appointment, error) {
	query := bson.M{
		"status": bson.M{"$in": bson.A{StatusScheduled, StatusConfirmed}},
		"scheduled_time": bson.M{
			"$gte": now,
			"$lte": now.Add(horizon),
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_time", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Appointment, 0)
	for cursor.Next(ctx) {
		var appointment Appointment
		if err := cursor.Decode(&appointment); err != nil {
			return nil, err
		}
		items = append(items, appointment)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) MarkWindowSent(ctx context.Context, id string, set bson.M, now time.Time) error {
	set["updated_at"] = now
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (r *MongoRepository) SetDepositFields(ctx context.Context, id, depositStatus, depositID string, amount float64, now time.Time) error {
	set := bson.M{
		"deposit_status": depositStatus,
		"updated_at":     now,
	}
	if depositID != "" {
		set["deposit_id"] = depositID
	}
	if amount > 0 {
		set["deposit_amount"] = amount
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}
