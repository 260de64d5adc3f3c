package settings

import (
	"context"
	"strings"
	"testing"

	"commune/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestBatchErrorMessage(t *testing.T) {
	err := &BatchError{Missing: []string{"B"}}
	assert.Equal(t, "Settings not found: B", err.Error())
}

// Keys are sorted in the message regardless of detection order.
func TestBatchErrorMessageSorted(t *testing.T) {
	err := &BatchError{Missing: []string{"Zeta", "Alpha", "Mid"}}
	assert.Equal(t, "Settings not found: Alpha, Mid, Zeta", err.Error())
	// Error() must not reorder the underlying slice's meaning on repeat calls
	assert.Equal(t, "Settings not found: Alpha, Mid, Zeta", err.Error())
}

func TestValidate(t *testing.T) {
	require.NoError(t, validate("EventTimeZone", "UTC"))
	require.NoError(t, validate("K", ""))

	assert.Error(t, validate("", "x"))
	assert.Error(t, validate(strings.Repeat("k", 101), "x"))
	assert.Error(t, validate("K", strings.Repeat("v", 501)))

	// boundary lengths are allowed
	assert.NoError(t, validate(strings.Repeat("k", 100), strings.Repeat("v", 500)))
}

// missingKeys is what decides whether a batch aborts: any requested
// key not in the found set rejects the whole batch before a single
// write happens.
func TestMissingKeys(t *testing.T) {
	found := map[string]bool{"EventTimeZone": true, "PreStartBufferMinutes": true}

	assert.Empty(t, missingKeys([]string{"EventTimeZone"}, found))
	assert.Empty(t, missingKeys(nil, found))

	missing := missingKeys([]string{"Zeta", "EventTimeZone", "Alpha"}, found)
	assert.Equal(t, []string{"Alpha", "Zeta"}, missing)

	missing = missingKeys([]string{"B"}, map[string]bool{})
	require.Equal(t, []string{"B"}, missing)
	assert.Equal(t, "Settings not found: B", (&BatchError{Missing: missing}).Error())
}

func TestGetAbsentKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock).DatabaseName("communedb").CollectionName("settings"))

	mt.Run("absent is ok=false not an error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "communedb.settings", mtest.FirstBatch))

		store := &Store{coll: mt.Coll, client: mt.Client}
		_, ok, err := store.Get(context.Background(), "NoSuchKey")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("present returns the raw value", func(mt *mtest.T) {
		doc := bson.D{
			{Key: "key", Value: models.SettingEventTimeZone},
			{Key: "value", Value: "Asia/Tokyo"},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "communedb.settings", mtest.FirstBatch, doc))

		store := &Store{coll: mt.Coll, client: mt.Client}
		value, ok, err := store.Get(context.Background(), models.SettingEventTimeZone)
		require.NoError(mt, err)
		assert.True(mt, ok)
		assert.Equal(mt, "Asia/Tokyo", value)
	})
}

// Update never creates keys; an unmatched filter is ErrSettingNotFound.
func TestUpdateUnknownKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock).DatabaseName("communedb").CollectionName("settings"))

	mt.Run("unmatched update is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		store := &Store{coll: mt.Coll, client: mt.Client}
		err := store.Update(context.Background(), "NoSuchKey", "x")
		assert.ErrorIs(mt, err, ErrSettingNotFound)
	})
}
