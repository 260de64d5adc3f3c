package checkin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
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

var hmacSecret = passSecret()

func passSecret() string {
	if s := os.Getenv("PASS_SECRET"); s != "" {
		return s
	}
	return "dev-only-pass-secret"
}

// QRPayload builds the signed payload embedded in a pass QR:
// eventID|uniqueCode|signature.
func QRPayload(eventID, uniqueCode string) string {
	data := fmt.Sprintf("%s|%s", eventID, uniqueCode)
	h := hmac.New(sha256.New, []byte(hmacSecret))
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// VerifyPayload checks a scanned QR payload and returns the embedded
// unique code when the signature holds.
func VerifyPayload(payload string) (string, bool) {
	parts := strings.Split(payload, "|")
	if len(parts) != 3 {
		return "", false
	}
	data := parts[0] + "|" + parts[1]
	h := hmac.New(sha256.New, []byte(hmacSecret))
	h.Write([]byte(data))
	want := base64.StdEncoding.EncodeToString(h.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return "", false
	}
	return parts[1], true
}

// VerifyPass confirms a registration code belongs to the event.
func VerifyPass(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	uniqueCode := r.URL.Query().Get("uniqueCode")

	if uniqueCode == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Unique code is required for verification")
		return
	}

	var registration models.Registration
	err := db.RegistrationsCollection.FindOne(r.Context(), bson.M{
		"eventid":    eventID,
		"uniquecode": uniqueCode,
		"status":     "confirmed",
	}).Decode(&registration)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Pass verification failed: %v", err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"isValid": true})
}

// CheckIn records arrival for a registration code. Idempotent: a
// second scan reports alreadyCheckedIn instead of failing.
func CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	uniqueCode := r.URL.Query().Get("uniqueCode")

	checkedBy, _ := r.Context().Value(globals.UserIDKey).(string)

	if uniqueCode == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Unique code is required")
		return
	}

	var registration models.Registration
	err := db.RegistrationsCollection.FindOne(r.Context(), bson.M{
		"eventid":    eventID,
		"uniquecode": uniqueCode,
		"status":     "confirmed",
	}).Decode(&registration)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "No confirmed registration for that code")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var existing models.CheckIn
	err = db.CheckInsCollection.FindOne(r.Context(), bson.M{"uniquecode": uniqueCode}).Decode(&existing)
	if err == nil {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"success":          true,
			"alreadyCheckedIn": true,
			"checked_at":       existing.CheckedAt,
		})
		return
	}
	if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	record := models.CheckIn{
		EventID:    eventID,
		SessionID:  registration.SessionID,
		UserID:     registration.UserID,
		UniqueCode: uniqueCode,
		CheckedBy:  checkedBy,
		CheckedAt:  time.Now().UTC(),
	}
	if _, err := db.CheckInsCollection.InsertOne(r.Context(), record); err != nil {
		// concurrent scan won the race; the unique code index rejects ours
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "alreadyCheckedIn": true})
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to record check-in")
		return
	}

	go mq.Emit(globals.Ctx, "checkin-recorded", mq.Msg{
		EntityType: "checkin", EntityId: uniqueCode, Method: "POST",
		ItemType: "event", ItemId: eventID,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "alreadyCheckedIn": false})
}

// GetCheckIns lists who has arrived, for the door roster.
func GetCheckIns(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	cur, err := db.CheckInsCollection.Find(r.Context(), bson.M{"eventid": eventID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch check-ins")
		return
	}
	defer cur.Close(r.Context())

	var checkins []models.CheckIn
	if err := cur.All(r.Context(), &checkins); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to decode check-ins")
		return
	}
	if len(checkins) == 0 {
		checkins = []models.CheckIn{}
	}

	utils.RespondWithJSON(w, http.StatusOK, checkins)
}
