package register

import (
	"context"

	"commune/db"
	"commune/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoSource reads events, sessions, and registration counts from
// the live collections.
type mongoSource struct{}

func NewMongoSource() EventSource {
	return mongoSource{}
}

func (mongoSource) Event(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := db.EventsCollection.FindOne(ctx, bson.M{"eventid": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (mongoSource) Sessions(ctx context.Context, eventID string) ([]models.EventSession, error) {
	cur, err := db.SessionsCollection.Find(ctx, bson.M{"eventid": eventID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []models.EventSession
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Counts tallies confirmed registration records per session. This is
// the audit-side count; the session document carries its own counter
// for the atomic write path, and a mismatch between the two shows up
// as a capacity anomaly.
func (mongoSource) Counts(ctx context.Context, eventID string) (map[string]int, error) {
	cur, err := db.RegistrationsCollection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"eventid": eventID, "status": bson.M{"$ne": "cancelled"}}}},
		{{Key: "$group", Value: bson.M{"_id": "$sessionid", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int)
	for cur.Next(ctx) {
		var row struct {
			SessionID string `bson:"_id"`
			Count     int    `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.SessionID] = row.Count
	}
	return counts, cur.Err()
}
