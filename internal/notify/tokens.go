package notify

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"barbershop-backend/internal/models"
)

type MongoTokenSource struct {
	col *mongo.Collection
}

func NewMongoTokenSource(col *mongo.Collection) *MongoTokenSource {
	return &MongoTokenSource{col: col}
}

func (s *MongoTokenSource) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tokens := make([]string, 0)
	for cursor.Next(ctx) {
		var record models.PushToken
		if err := cursor.Decode(&record); err != nil {
			return nil, err
		}
		if record.Token != "" {
			tokens = append(tokens, record.Token)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
