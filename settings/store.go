package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"commune/db"
	"commune/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrSettingNotFound = errors.New("setting not found")

// BatchError is returned when UpdateMany references unknown keys. The
// whole batch is rejected; Missing lists every offending key.
type BatchError struct {
	Missing []string
}

func (e *BatchError) Error() string {
	keys := append([]string(nil), e.Missing...)
	sort.Strings(keys)
	return "Settings not found: " + strings.Join(keys, ", ")
}

// Store reads and writes configuration rows. Settings are created at
// seed time only; Update and UpdateMany never insert.
type Store struct {
	coll   *mongo.Collection
	client *mongo.Client
}

func NewStore() *Store {
	return &Store{coll: db.SettingsCollection, client: db.Client}
}

// Get returns the raw value for key. A missing key is reported via
// ok=false, not an error; the caller decides whether that is fatal.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var setting models.Setting
	err := s.coll.FindOne(ctx, bson.M{"key": key}).Decode(&setting)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// GetAll returns every setting as a flat key->value map. The settings
// count is small and bounded, so no pagination.
func (s *Store) GetAll(ctx context.Context) (map[string]string, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.Key] = d.Value
	}
	return out, nil
}

// List returns the full documents, sorted by key.
func (s *Store) List(ctx context.Context) ([]models.Setting, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []models.Setting
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

// missingKeys returns the requested keys absent from the found set,
// sorted, so the batch rejection is deterministic.
func missingKeys(keys []string, found map[string]bool) []string {
	var missing []string
	for _, k := range keys {
		if !found[k] {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

func validate(key, value string) error {
	if key == "" || len(key) > models.MaxSettingKeyLen {
		return fmt.Errorf("invalid setting key %q", key)
	}
	if len(value) > models.MaxSettingValueLen {
		return fmt.Errorf("setting %q: value exceeds %d chars", key, models.MaxSettingValueLen)
	}
	return nil
}

// Update writes one setting. Unknown keys fail with
// ErrSettingNotFound; update never creates settings implicitly.
func (s *Store) Update(ctx context.Context, key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSettingNotFound
	}
	return nil
}

// UpdateMany applies a batch of updates all-or-nothing inside a
// transaction. If any key is unknown the whole batch is rejected with
// a BatchError and nothing is written. Every updated document gets
// the same updated_at instant.
func (s *Store) UpdateMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if err := validate(k, v); err != nil {
			return err
		}
		keys = append(keys, k)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		cur, err := s.coll.Find(sc, bson.M{"key": bson.M{"$in": keys}})
		if err != nil {
			return nil, err
		}
		found := make(map[string]bool, len(keys))
		var doc models.Setting
		for cur.Next(sc) {
			if err := cur.Decode(&doc); err != nil {
				cur.Close(sc)
				return nil, err
			}
			found[doc.Key] = true
		}
		if err := cur.Err(); err != nil {
			cur.Close(sc)
			return nil, err
		}
		cur.Close(sc)

		if missing := missingKeys(keys, found); len(missing) > 0 {
			return nil, &BatchError{Missing: missing}
		}

		now := time.Now().UTC()
		for _, k := range keys {
			if _, err := s.coll.UpdateOne(sc,
				bson.M{"key": k},
				bson.M{"$set": bson.M{"value": values[k], "updated_at": now}},
			); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// Seed inserts missing default settings. It never overwrites an
// existing value; re-running it is safe.
func (s *Store) Seed(ctx context.Context) error {
	defaults := []models.Setting{
		{Key: models.SettingEventTimeZone, Value: "UTC", Description: "IANA time zone events are scheduled in"},
		{Key: models.SettingPreStartBufferMinutes, Value: "60", Description: "Minutes before event start when registration closes"},
	}
	now := time.Now().UTC()
	for _, d := range defaults {
		d.CreatedAt = now
		d.UpdatedAt = now
		_, err := s.coll.UpdateOne(ctx,
			bson.M{"key": d.Key},
			bson.M{"$setOnInsert": d},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
