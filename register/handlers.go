package register

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"commune/db"
	"commune/globals"
	"commune/live"
	"commune/models"
	"commune/mq"
	"commune/schedule"
	"commune/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	coord *Coordinator
	hub   *live.Hub
)

// Setup wires the package handlers; called once from main.
func Setup(c *Coordinator, h *live.Hub) {
	coord = c
	hub = h
}

func respondForError(w http.ResponseWriter, err error) {
	var cfgErr *schedule.ConfigError
	switch {
	case errors.Is(err, ErrEventNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, ErrSessionNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Session not found")
	case errors.As(err, &cfgErr):
		log.Printf("ALERT %v", cfgErr)
		utils.RespondWithError(w, http.StatusInternalServerError, cfgErr.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
	}
}

// GetAvailability returns the capacity picture plus the window.
func GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	window, err := coord.Window(r.Context(), eventID)
	if err != nil {
		respondForError(w, err)
		return
	}
	infos, err := coord.Availability(r.Context(), eventID)
	if err != nil {
		respondForError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"eventid":  eventID,
		"window":   window,
		"open":     window.OpenAt(time.Now().UTC()),
		"sessions": infos,
	})
}

// CheckRegistration is the advisory read: may this user register?
func CheckRegistration(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	sessionID := r.URL.Query().Get("sessionid")
	if sessionID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "sessionid is required")
		return
	}

	allowed, reason, err := coord.CanRegister(r.Context(), eventID, sessionID)
	if err != nil {
		respondForError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"allowed": allowed, "reason": reason})
}

func approvedMember(ctx context.Context, userID string) (bool, error) {
	var member models.Member
	err := db.MembersCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return member.Status == models.MemberApproved, nil
}

// CreateRegistration performs the actual write. The coordinator's
// answer is advisory, so capacity is re-checked with a conditional
// update on the session counter; losing that race declines the
// registration instead of overbooking.
func CreateRegistration(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	sessionID := ps.ByName("sessionid")

	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	isApproved, err := approvedMember(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if !isApproved {
		utils.RespondWithError(w, http.StatusForbidden, "Membership not approved")
		return
	}

	allowed, reason, err := coord.CanRegister(r.Context(), eventID, sessionID)
	if err != nil {
		respondForError(w, err)
		return
	}
	if !allowed {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "reason": reason})
		return
	}

	// take the spot atomically
	res, err := db.SessionsCollection.UpdateOne(r.Context(),
		bson.M{
			"eventid":   eventID,
			"sessionid": sessionID,
			"$expr":     bson.M{"$lt": bson.A{"$registered", "$capacity"}},
		},
		bson.M{"$inc": bson.M{"registered": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reserve spot")
		return
	}
	if res.MatchedCount == 0 {
		// lost the race or session gone
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "reason": ReasonNoSpots})
		return
	}

	now := time.Now().UTC()
	registration := models.Registration{
		RegistrationID: uuid.NewString(),
		EventID:        eventID,
		SessionID:      sessionID,
		UserID:         userID,
		UniqueCode:     utils.GenerateRandomString(12),
		Status:         "confirmed",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := db.RegistrationsCollection.InsertOne(r.Context(), registration); err != nil {
		// give the spot back; the unique index rejects double signups
		releaseSpot(r.Context(), eventID, sessionID)
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "reason": "Already registered"})
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save registration")
		return
	}

	go mq.Emit(globals.Ctx, "registration-created", mq.Msg{
		EntityType: "registration", EntityId: registration.RegistrationID,
		Method: "POST", ItemType: "event", ItemId: eventID,
	})
	go pushAvailability(eventID)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "registration": registration})
}

// CancelRegistration releases the spot and marks the record
// cancelled. The update filter matches only confirmed records, so a
// repeat cancel finds nothing (404) and the spot is released once.
func CancelRegistration(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	registrationID := ps.ByName("registrationid")

	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	res := db.RegistrationsCollection.FindOneAndUpdate(r.Context(),
		bson.M{"registrationid": registrationID, "userid": userID, "status": "confirmed"},
		bson.M{"$set": bson.M{"status": "cancelled", "updated_at": time.Now().UTC()}},
	)
	var registration models.Registration
	if err := res.Decode(&registration); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Registration not found")
		return
	}

	releaseSpot(r.Context(), registration.EventID, registration.SessionID)

	go mq.Emit(globals.Ctx, "registration-cancelled", mq.Msg{
		EntityType: "registration", EntityId: registrationID,
		Method: "DELETE", ItemType: "event", ItemId: registration.EventID,
	})
	go pushAvailability(registration.EventID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// GetMyRegistrations lists the caller's registrations.
func GetMyRegistrations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	cur, err := db.RegistrationsCollection.Find(r.Context(), bson.M{"userid": userID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch registrations")
		return
	}
	defer cur.Close(r.Context())

	var registrations []models.Registration
	if err := cur.All(r.Context(), &registrations); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode registrations")
		return
	}
	if len(registrations) == 0 {
		registrations = []models.Registration{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(registrations)
}

func releaseSpot(ctx context.Context, eventID, sessionID string) {
	_, err := db.SessionsCollection.UpdateOne(ctx,
		bson.M{
			"eventid":    eventID,
			"sessionid":  sessionID,
			"registered": bson.M{"$gt": 0},
		},
		bson.M{"$inc": bson.M{"registered": -1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		log.Printf("release spot %s/%s: %v", eventID, sessionID, err)
	}
}

func pushAvailability(eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := coord.Availability(ctx, eventID)
	if err != nil {
		log.Printf("availability push %s: %v", eventID, err)
		return
	}
	hub.BroadcastAvailability(eventID, infos)
}
