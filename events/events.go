package events

import (
	"encoding/json"
	"net/http"
	"time"

	"commune/db"
	"commune/globals"
	"commune/models"
	"commune/mq"
	"commune/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	if event.Title == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if event.StartDateTime.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "Start time is required")
		return
	}
	if !event.EndDateTime.IsZero() && event.EndDateTime.Before(event.StartDateTime) {
		utils.RespondWithError(w, http.StatusBadRequest, "End time precedes start time")
		return
	}

	now := time.Now().UTC()
	event.EventID = utils.GenerateRandomString(14)
	event.CreatorID = requestingUserID
	event.Status = "active"
	// timestamps stored UTC; display conversion is the resolver's job
	event.StartDateTime = event.StartDateTime.UTC()
	event.EndDateTime = event.EndDateTime.UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Tags == nil {
		event.Tags = []string{}
	}

	if _, err := db.EventsCollection.InsertOne(r.Context(), event); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error saving event")
		return
	}

	go mq.Emit(globals.Ctx, "event-created", mq.Msg{
		EntityType: "event", EntityId: event.EventID, Method: "POST",
	})

	utils.RespondWithJSON(w, http.StatusCreated, event)
}

func GetEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_date_time", Value: 1}})
	cur, err := db.EventsCollection.Find(r.Context(), filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	defer cur.Close(r.Context())

	var events []models.Event
	if err := cur.All(r.Context(), &events); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode events")
		return
	}
	if len(events) == 0 {
		events = []models.Event{}
	}

	utils.RespondWithJSON(w, http.StatusOK, events)
}

func GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	var event models.Event
	err := db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, event)
}

func EditEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	var patch models.Event
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input data")
		return
	}

	var existing models.Event
	err := db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	requestingUserID, _ := r.Context().Value(globals.UserIDKey).(string)
	if existing.CreatorID != requestingUserID {
		utils.RespondWithError(w, http.StatusForbidden, "Not the event organizer")
		return
	}

	updateFields := bson.M{}
	if patch.Title != "" && patch.Title != existing.Title {
		updateFields["title"] = patch.Title
	}
	if patch.Description != "" && patch.Description != existing.Description {
		updateFields["description"] = patch.Description
	}
	if patch.Location != "" && patch.Location != existing.Location {
		updateFields["location"] = patch.Location
	}
	if patch.Category != "" && patch.Category != existing.Category {
		updateFields["category"] = patch.Category
	}
	if !patch.StartDateTime.IsZero() {
		updateFields["start_date_time"] = patch.StartDateTime.UTC()
	}
	if !patch.EndDateTime.IsZero() {
		updateFields["end_date_time"] = patch.EndDateTime.UTC()
	}
	if patch.Status != "" && patch.Status != existing.Status {
		updateFields["status"] = patch.Status
	}

	if len(updateFields) == 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": false,
			"message": "No changes detected for event",
		})
		return
	}

	updateFields["updated_at"] = time.Now().UTC()

	_, err = db.EventsCollection.UpdateOne(r.Context(), bson.M{"eventid": eventID}, bson.M{"$set": updateFields})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	go mq.Emit(globals.Ctx, "event-edited", mq.Msg{
		EntityType: "event", EntityId: eventID, Method: "PUT",
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Event updated successfully",
		"data":    updateFields,
	})
}

func DeleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	requestingUserID, _ := r.Context().Value(globals.UserIDKey).(string)

	res, err := db.EventsCollection.DeleteOne(r.Context(), bson.M{"eventid": eventID, "creatorid": requestingUserID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}

	// sessions go with the event; registrations are kept for audit
	_, _ = db.SessionsCollection.DeleteMany(r.Context(), bson.M{"eventid": eventID})

	go mq.Emit(globals.Ctx, "event-deleted", mq.Msg{
		EntityType: "event", EntityId: eventID, Method: "DELETE",
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Event deleted successfully",
	})
}
