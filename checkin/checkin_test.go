package checkin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"commune/db"
	"commune/globals"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	payload := QRPayload("ev1", "CODE12345678")
	assert.True(t, strings.HasPrefix(payload, "ev1|CODE12345678|"))

	code, ok := VerifyPayload(payload)
	require.True(t, ok)
	assert.Equal(t, "CODE12345678", code)
}

func TestVerifyPayloadRejectsTampering(t *testing.T) {
	payload := QRPayload("ev1", "CODE12345678")

	// swap the code, keep the signature
	tampered := strings.Replace(payload, "CODE12345678", "CODE87654321", 1)
	_, ok := VerifyPayload(tampered)
	assert.False(t, ok)
}

func TestVerifyPayloadRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "ev1", "ev1|code", "a|b|c|d"} {
		_, ok := VerifyPayload(bad)
		assert.False(t, ok, "payload %q", bad)
	}
}

// Two scans of the same code can both pass the pre-insert lookup; the
// loser hits the unique code index and must still get the
// alreadyCheckedIn answer, not an error.
func TestCheckInLostInsertRaceReportsAlreadyCheckedIn(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock).DatabaseName("communedb").CollectionName("checkins"))

	mt.Run("duplicate insert", func(mt *mtest.T) {
		db.RegistrationsCollection = mt.Coll
		db.CheckInsCollection = mt.Coll

		ns := "communedb.checkins"
		registration := bson.D{
			{Key: "registrationid", Value: "reg1"},
			{Key: "eventid", Value: "ev1"},
			{Key: "sessionid", Value: "s1"},
			{Key: "userid", Value: "u1"},
			{Key: "uniquecode", Value: "CODE12345678"},
			{Key: "status", Value: "confirmed"},
		}
		mt.AddMockResponses(
			// confirmed registration lookup
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, registration),
			// no existing check-in yet, both scanners see this
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			// the other scanner inserted first
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index: 0, Code: 11000, Message: "E11000 duplicate key error",
			}),
		)

		req := httptest.NewRequest(http.MethodPost, "/api/checkin/event/ev1?uniqueCode=CODE12345678", nil)
		req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, "door1"))
		w := httptest.NewRecorder()

		CheckIn(w, req, httprouter.Params{{Key: "eventid", Value: "ev1"}})

		require.Equal(mt, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(mt, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(mt, true, body["success"])
		assert.Equal(mt, true, body["alreadyCheckedIn"])
	})
}
