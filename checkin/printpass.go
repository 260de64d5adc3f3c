package checkin

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"commune/db"
	"commune/middleware"
	"commune/models"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

// PrintPass renders a registration as a PDF with the signed QR the
// door scanner accepts.
func PrintPass(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	uniqueCode := r.URL.Query().Get("uniqueCode")

	tokenString := r.Header.Get("Authorization")
	claims, err := middleware.ValidateJWT(tokenString)
	if err != nil {
		log.Printf("JWT validation error: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if uniqueCode == "" {
		http.Error(w, "Unique code is required", http.StatusBadRequest)
		return
	}

	var registration models.Registration
	err = db.RegistrationsCollection.FindOne(r.Context(), bson.M{
		"eventid":    eventID,
		"uniquecode": uniqueCode,
		"status":     "confirmed",
	}).Decode(&registration)
	if err != nil {
		http.Error(w, fmt.Sprintf("Pass lookup failed: %v", err), http.StatusNotFound)
		return
	}

	var event models.Event
	err = db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Decode(&event)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	qrPNG, err := qrcode.Encode(QRPayload(eventID, uniqueCode), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Event Pass")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Event: %s", event.Title))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Name: %s", claims.Username))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Code: %s", uniqueCode))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		http.Error(w, "Failed to generate PDF", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=pass-"+uniqueCode+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
