package members

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Apply submits a membership application for the authenticated user.
// Reapplying after rejection is allowed; an approved member cannot
// apply again.
func Apply(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload struct {
		DisplayName string `json:"display_name"`
		Pronouns    string `json:"pronouns"`
		Statement   string `json:"statement"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	payload.DisplayName = strings.TrimSpace(payload.DisplayName)
	if payload.DisplayName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required field: display_name")
		return
	}

	var existing models.Member
	err := db.MembersCollection.FindOne(r.Context(), bson.M{"userid": userID}).Decode(&existing)
	if err == nil {
		switch existing.Status {
		case models.MemberApproved:
			utils.RespondWithError(w, http.StatusConflict, "Already a member")
			return
		case models.MemberApplied:
			utils.RespondWithError(w, http.StatusConflict, "Application already pending")
			return
		}
	} else if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now().UTC()
	member := models.Member{
		UserID:      userID,
		DisplayName: payload.DisplayName,
		Pronouns:    strings.TrimSpace(payload.Pronouns),
		Statement:   strings.TrimSpace(payload.Statement),
		Status:      models.MemberApplied,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := db.MembersCollection.ReplaceOne(r.Context(), bson.M{"userid": userID}, member, opts); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save application")
		return
	}

	go mq.Emit(globals.Ctx, "member-applied", mq.Msg{
		EntityType: "member", EntityId: userID, Method: "POST",
	})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Application submitted"})
}

// GetApplications lists pending applications for the vetting queue.
func GetApplications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.MemberApplied
	}

	cursor, err := db.MembersCollection.Find(r.Context(), bson.M{"status": status})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch applications")
		return
	}
	defer cursor.Close(r.Context())

	var applicants []models.Member
	if err := cursor.All(r.Context(), &applicants); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error processing applications")
		return
	}
	if len(applicants) == 0 {
		applicants = []models.Member{}
	}

	utils.RespondWithJSON(w, http.StatusOK, applicants)
}

// GetMember returns one member record.
func GetMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userid")

	var member models.Member
	err := db.MembersCollection.FindOne(r.Context(), bson.M{"userid": userID}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Member not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, member)
}

// ReviewApplication approves or rejects a pending application.
func ReviewApplication(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userid")

	var payload struct {
		Status     string `json:"status"`
		ReviewNote string `json:"review_note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	payload.Status = strings.TrimSpace(payload.Status)
	if payload.Status != models.MemberApproved && payload.Status != models.MemberRejected {
		utils.RespondWithError(w, http.StatusBadRequest, "Status must be approved or rejected")
		return
	}

	reviewedBy, _ := r.Context().Value(globals.UserIDKey).(string)

	updateFields := bson.M{
		"status":     payload.Status,
		"reviewedby": reviewedBy,
		"updated_at": time.Now().UTC(),
	}
	if payload.ReviewNote != "" {
		updateFields["review_note"] = payload.ReviewNote
	}

	res, err := db.MembersCollection.UpdateOne(r.Context(),
		bson.M{"userid": userID, "status": models.MemberApplied},
		bson.M{"$set": updateFields})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update application")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "No pending application for that user")
		return
	}

	go mq.Emit(globals.Ctx, "member-reviewed", mq.Msg{
		EntityType: "member", EntityId: userID, Method: "PUT",
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Application " + payload.Status})
}
