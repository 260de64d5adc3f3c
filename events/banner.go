package events

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"commune/db"
	"commune/utils"

	"github.com/disintegration/imaging"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

var bannerUploadPath = "./static/eventpic/banner"

// UploadBanner accepts a multipart image, resizes it to a fixed width
// and stores it under the event id.
func UploadBanner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}

	file, header, err := r.FormFile("banner")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Banner file is required")
		return
	}
	defer file.Close()

	if !utils.SupportedImageTypes[header.Header.Get("Content-Type")] {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	img, err := imaging.Decode(file)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to decode image")
		return
	}

	if err := os.MkdirAll(bannerUploadPath, 0755); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error creating banner directory")
		return
	}

	fileName := eventID + ".jpg"
	outPath := filepath.Join(bannerUploadPath, filepath.Base(fileName))

	resized := imaging.Resize(img, 1200, 0, imaging.Lanczos)
	if err := imaging.Save(resized, outPath); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error saving banner")
		return
	}

	res, err := db.EventsCollection.UpdateOne(r.Context(),
		bson.M{"eventid": eventID},
		bson.M{"$set": bson.M{"banner": fileName, "updated_at": time.Now().UTC()}})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update event")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "banner": fileName})
}
