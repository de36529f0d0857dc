package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"barbershop-backend/internal/config"
	"barbershop-backend/internal/db"
	"barbershop-backend/internal/loyalty"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/utils"
)

type seedService struct {
	Name        string
	Description string
	Price       float64
	Duration    int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	now := time.Now().UTC()

	ownerUpdate := bson.M{
		"$setOnInsert": bson.M{
			"_id":        models.NewID("user"),
			"email":      "carlos@barbershop.mx",
			"name":       "Carlos Mendoza",
			"role":       models.UserRoleAdmin,
			"phone":      "+525512345678",
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var owner models.User
	if err := cols.Users.FindOneAndUpdate(ctx, bson.M{"email": "carlos@barbershop.mx"}, ownerUpdate, opts).Decode(&owner); err != nil {
		log.Fatalf("seed owner: %v", err)
	}
	ownerID := owner.ID

	shopUpdate := bson.M{
		"$setOnInsert": bson.M{
			"_id":           models.NewID("shop"),
			"owner_user_id": ownerID,
			"name":          "Barberia El Clasico",
			"address":       "Av. Insurgentes Sur 1234, CDMX",
			"phone":         "+525512345678",
			"description":   "Cortes clasicos y modernos desde 2015.",
			"photos":        []string{},
			"working_hours": map[string]models.DayHours{
				"monday":    {Open: "10:00", Close: "20:00"},
				"tuesday":   {Open: "10:00", Close: "20:00"},
				"wednesday": {Open: "10:00", Close: "20:00"},
				"thursday":  {Open: "10:00", Close: "20:00"},
				"friday":    {Open: "10:00", Close: "21:00"},
				"saturday":  {Open: "09:00", Close: "21:00"},
			},
			"created_at": now,
		},
	}
	var shop models.Barbershop
	if err := cols.Barbershops.FindOneAndUpdate(ctx, bson.M{"name": "Barberia El Clasico"}, shopUpdate, opts).Decode(&shop); err != nil {
		log.Fatalf("seed shop: %v", err)
	}
	shopID := shop.ID

	services := []seedService{
		{Name: "Corte clasico", Description: "Tijera y maquina, acabado con navaja.", Price: 180, Duration: 30},
		{Name: "Corte y barba", Description: "Corte completo mas perfilado de barba.", Price: 280, Duration: 50},
		{Name: "Afeitado tradicional", Description: "Toalla caliente y navaja.", Price: 150, Duration: 25},
		{Name: "Diseno de barba", Description: "Perfilado y tratamiento hidratante.", Price: 120, Duration: 20},
	}
	for _, svc := range services {
		slug := utils.Slugify(svc.Name)
		update := bson.M{
			"$setOnInsert": bson.M{
				"_id":         models.NewID("svc"),
				"shop_id":     shopID,
				"name":        svc.Name,
				"slug":        slug,
				"description": svc.Description,
				"price":       svc.Price,
				"duration":    svc.Duration,
				"created_at":  now,
			},
		}
		if _, err := cols.Services.UpdateOne(ctx, bson.M{"shop_id": shopID, "slug": slug}, update, options.Update().SetUpsert(true)); err != nil {
			log.Fatalf("seed service %s: %v", svc.Name, err)
		}
	}

	rules := loyalty.DefaultRules()
	rules.UpdatedAt = now
	rulesUpdate := bson.M{"$setOnInsert": rules}
	if _, err := cols.LoyaltyRules.UpdateOne(ctx, bson.M{"_id": loyalty.RulesDocID}, rulesUpdate, options.Update().SetUpsert(true)); err != nil {
		log.Fatalf("seed loyalty rules: %v", err)
	}

	log.Println("seed completed")
}
