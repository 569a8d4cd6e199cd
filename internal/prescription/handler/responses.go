package handler

import (
	"time"

	"medidrop/internal/prescription/models"
)

// PrescriptionResponse is the HTTP representation of a prescription.
type PrescriptionResponse struct {
	ID            string     `json:"id"`
	ListingID     string     `json:"listing_id"`
	BuyerCountry  string     `json:"buyer_country"`
	PatientName   string     `json:"patient_name"`
	PhysicianName string     `json:"physician_name"`
	State         string     `json:"state"`
	Notes         string     `json:"notes,omitempty"`
	ReviewNote    string     `json:"review_note,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FromPrescription converts a prescription aggregate to its HTTP
// representation. The document ref stays internal.
func FromPrescription(p *models.Prescription) *PrescriptionResponse {
	return &PrescriptionResponse{
		ID:            p.ID.String(),
		ListingID:     p.ListingID.String(),
		BuyerCountry:  p.BuyerCountry.String(),
		PatientName:   p.PatientName,
		PhysicianName: p.PhysicianName,
		State:         string(p.State),
		Notes:         p.Notes,
		ReviewNote:    p.ReviewNote,
		ReviewedAt:    p.ReviewedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
