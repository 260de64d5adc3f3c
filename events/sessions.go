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
)

func CreateSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	var session models.EventSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if session.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if session.Capacity < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Capacity must be non-negative")
		return
	}
	if session.StartTime.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "Start time is required")
		return
	}

	err := db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Err()
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now().UTC()
	session.SessionID = utils.GenerateRandomString(12)
	session.EventID = eventID
	session.Registered = 0
	session.StartTime = session.StartTime.UTC()
	session.EndTime = session.EndTime.UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	if _, err := db.SessionsCollection.InsertOne(r.Context(), session); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	go mq.Emit(globals.Ctx, "session-created", mq.Msg{
		EntityType: "session", EntityId: session.SessionID, Method: "POST",
		ItemType: "event", ItemId: eventID,
	})

	utils.RespondWithJSON(w, http.StatusCreated, session)
}

func GetSessions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	cur, err := db.SessionsCollection.Find(r.Context(), bson.M{"eventid": eventID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch sessions")
		return
	}
	defer cur.Close(r.Context())

	var sessions []models.EventSession
	if err := cur.All(r.Context(), &sessions); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode sessions")
		return
	}
	if len(sessions) == 0 {
		sessions = []models.EventSession{}
	}

	utils.RespondWithJSON(w, http.StatusOK, sessions)
}

// EditSession updates name, times, or capacity. Capacity can never be
// lowered under the current registered count; that would strand
// confirmed registrations.
func EditSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	sessionID := ps.ByName("sessionid")

	var patch struct {
		Name      string     `json:"name"`
		Capacity  *int       `json:"capacity"`
		StartTime *time.Time `json:"start_time"`
		EndTime   *time.Time `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	var existing models.EventSession
	err := db.SessionsCollection.FindOne(r.Context(), bson.M{"eventid": eventID, "sessionid": sessionID}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	updateFields := bson.M{}
	if patch.Name != "" && patch.Name != existing.Name {
		updateFields["name"] = patch.Name
	}
	if patch.Capacity != nil {
		if *patch.Capacity < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Capacity must be non-negative")
			return
		}
		if *patch.Capacity < existing.Registered {
			utils.RespondWithError(w, http.StatusConflict, "Capacity below current registrations")
			return
		}
		updateFields["capacity"] = *patch.Capacity
	}
	if patch.StartTime != nil {
		updateFields["start_time"] = patch.StartTime.UTC()
	}
	if patch.EndTime != nil {
		updateFields["end_time"] = patch.EndTime.UTC()
	}

	if len(updateFields) == 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success": false,
			"message": "No changes detected for session",
		})
		return
	}

	updateFields["updated_at"] = time.Now().UTC()

	_, err = db.SessionsCollection.UpdateOne(r.Context(),
		bson.M{"eventid": eventID, "sessionid": sessionID},
		bson.M{"$set": updateFields})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update session")
		return
	}

	go mq.Emit(globals.Ctx, "session-edited", mq.Msg{
		EntityType: "session", EntityId: sessionID, Method: "PUT",
		ItemType: "event", ItemId: eventID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Session updated successfully",
		"data":    updateFields,
	})
}

func DeleteSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	sessionID := ps.ByName("sessionid")

	var existing models.EventSession
	err := db.SessionsCollection.FindOne(r.Context(), bson.M{"eventid": eventID, "sessionid": sessionID}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing.Registered > 0 {
		utils.RespondWithError(w, http.StatusConflict, "Session has confirmed registrations")
		return
	}

	if _, err := db.SessionsCollection.DeleteOne(r.Context(), bson.M{"eventid": eventID, "sessionid": sessionID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	go mq.Emit(globals.Ctx, "session-deleted", mq.Msg{
		EntityType: "session", EntityId: sessionID, Method: "DELETE",
		ItemType: "event", ItemId: eventID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"message": "Session deleted successfully",
	})
}
