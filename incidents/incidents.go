package incidents

import (
	"encoding/json"
	"net/http"
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

// SubmitIncident files a community incident report.
//
// Returns:
//
//	201 Created { "message": "Incident submitted", "incidentId": "<id>" }
//	400 Bad Request { "error": "Missing required field: category" }
//	409 Conflict { "error": "You have already reported this" }
func SubmitIncident(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload models.Incident
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	reportedBy, _ := r.Context().Value(globals.UserIDKey).(string)
	payload.ReportedBy = reportedBy
	payload.EventID = strings.TrimSpace(payload.EventID)
	payload.TargetID = strings.TrimSpace(payload.TargetID)
	payload.Category = strings.TrimSpace(payload.Category)
	payload.Description = strings.TrimSpace(payload.Description)

	if payload.ReportedBy == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if payload.EventID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required field: eventId")
		return
	}
	if payload.Category == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required field: category")
		return
	}
	if payload.Description == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required field: description")
		return
	}

	// One open report per reporter per target.
	filter := bson.M{
		"reportedBy": payload.ReportedBy,
		"eventid":    payload.EventID,
		"targetId":   payload.TargetID,
	}
	err := db.IncidentsCollection.FindOne(r.Context(), filter).Err()
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "You have already reported this")
		return
	}
	if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error checking existing incidents")
		return
	}

	now := time.Now().UTC()
	payload.IncidentID = utils.GenerateRandomString(14)
	payload.Status = "pending"
	payload.ReviewedBy = ""
	payload.ReviewNotes = ""
	payload.CreatedAt = now
	payload.UpdatedAt = now

	if _, err := db.IncidentsCollection.InsertOne(r.Context(), payload); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save incident")
		return
	}

	go mq.Emit(globals.Ctx, "incident-submitted", mq.Msg{
		EntityType: "incident", EntityId: payload.IncidentID, Method: "POST",
		ItemType: "event", ItemId: payload.EventID,
	})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message":    "Incident submitted",
		"incidentId": payload.IncidentID,
	})
}

// GetIncidents lists incidents, optionally filtered by status or
// event. Steward only.
func GetIncidents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if eventID := r.URL.Query().Get("eventid"); eventID != "" {
		filter["eventid"] = eventID
	}

	cursor, err := db.IncidentsCollection.Find(r.Context(), filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch incidents")
		return
	}
	defer cursor.Close(r.Context())

	var incidents []models.Incident
	if err := cursor.All(r.Context(), &incidents); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing incidents")
		return
	}
	if len(incidents) == 0 {
		incidents = []models.Incident{}
	}

	utils.RespondWithJSON(w, http.StatusOK, incidents)
}

// ReviewIncident updates an incident's status after steward review.
func ReviewIncident(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	incidentID := ps.ByName("incidentid")

	var payload struct {
		Status      string `json:"status"`
		ReviewNotes string `json:"reviewNotes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	payload.Status = strings.TrimSpace(payload.Status)
	payload.ReviewNotes = strings.TrimSpace(payload.ReviewNotes)

	if payload.Status == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required field: status")
		return
	}
	switch payload.Status {
	case "pending", "reviewing", "resolved", "dismissed":
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown status: "+payload.Status)
		return
	}

	reviewedBy, _ := r.Context().Value(globals.UserIDKey).(string)

	updateFields := bson.M{
		"status":     payload.Status,
		"reviewedBy": reviewedBy,
		"updated_at": time.Now().UTC(),
	}
	if payload.ReviewNotes != "" {
		updateFields["reviewNotes"] = payload.ReviewNotes
	}

	res, err := db.IncidentsCollection.UpdateOne(r.Context(),
		bson.M{"incidentid": incidentID},
		bson.M{"$set": updateFields})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update incident")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Incident not found")
		return
	}

	go mq.Emit(globals.Ctx, "incident-reviewed", mq.Msg{
		EntityType: "incident", EntityId: incidentID, Method: "PUT",
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Incident updated"})
}
