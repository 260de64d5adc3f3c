package settings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"commune/globals"
	"commune/mq"
	"commune/rdx"
	"commune/utils"

	"github.com/julienschmidt/httprouter"
)

const listCacheKey = "settings:all"
const listCacheTTL = 30 * time.Second

// DefaultStore backs the HTTP handlers. Set once at startup.
var DefaultStore *Store

// GetSettings returns every setting document. Read-heavy and nearly
// static, so the serialized list sits in Redis for a short TTL.
func GetSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if cached, err := rdx.RdxGet(listCacheKey); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	docs, err := DefaultStore.List(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}

	if data, err := json.Marshal(docs); err == nil {
		rdx.RdxSetTTL(listCacheKey, string(data), listCacheTTL)
	}
	utils.RespondWithJSON(w, http.StatusOK, docs)
}

func GetSetting(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := ps.ByName("key")
	value, ok, err := DefaultStore.Get(r.Context(), key)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch setting")
		return
	}
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Setting not found: "+key)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"key": key, "value": value})
}

func UpdateSetting(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := ps.ByName("key")

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	err := DefaultStore.Update(r.Context(), key, body.Value)
	if errors.Is(err, ErrSettingNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Setting not found: "+key)
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}

	rdx.RdxDel(listCacheKey)
	go mq.Emit(globals.Ctx, "setting-updated", mq.Msg{EntityType: "setting", EntityId: key, Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"key":     key,
		"value":   body.Value,
	})
}

// UpdateSettings applies a batch; all-or-nothing. Unknown keys reject
// the whole batch with 422 and the offending keys in the message.
func UpdateSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	err := DefaultStore.UpdateMany(r.Context(), body)
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, utils.M{
			"success": false,
			"message": batchErr.Error(),
			"missing": batchErr.Missing,
		})
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	rdx.RdxDel(listCacheKey)
	go mq.Emit(globals.Ctx, "settings-updated", mq.Msg{EntityType: "setting", Method: "PUT"})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "updated": len(body)})
}
