package db

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	SettingsCollection      *mongo.Collection
	EventsCollection        *mongo.Collection
	SessionsCollection      *mongo.Collection
	RegistrationsCollection *mongo.Collection
	MembersCollection       *mongo.Collection
	IncidentsCollection     *mongo.Collection
	CheckInsCollection      *mongo.Collection
	Client                  *mongo.Client
)

// Initialize MongoDB connection
func init() {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("communedb")
	SettingsCollection = database.Collection("settings")
	EventsCollection = database.Collection("events")
	SessionsCollection = database.Collection("sessions")
	RegistrationsCollection = database.Collection("registrations")
	MembersCollection = database.Collection("members")
	IncidentsCollection = database.Collection("incidents")
	CheckInsCollection = database.Collection("checkins")

	EnsureIndexes()
}

// EnsureIndexes creates the unique indexes the write paths rely on.
func EnsureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := SettingsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("settings index: %v", err)
	}

	_, err = SessionsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "eventid", Value: 1}, {Key: "sessionid", Value: 1}},
	})
	if err != nil {
		log.Printf("sessions index: %v", err)
	}

	// one active registration per member per session
	_, err = RegistrationsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionid", Value: 1}, {Key: "userid", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"status": bson.M{"$ne": "cancelled"}}),
	})
	if err != nil {
		log.Printf("registrations index: %v", err)
	}

	_, err = RegistrationsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uniquecode", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("registrations code index: %v", err)
	}

	// one check-in per code; concurrent scans race to this index
	_, err = CheckInsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uniquecode", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("checkins index: %v", err)
	}
}
