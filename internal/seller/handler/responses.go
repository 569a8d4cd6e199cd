package handler

import (
	"time"

	"medidrop/internal/seller/models"
)

// SellerResponse is the HTTP representation of a seller.
type SellerResponse struct {
	ID                string     `json:"id"`
	DisplayName       string     `json:"display_name"`
	CountryCode       string     `json:"country_code"`
	State             string     `json:"state"`
	LicenseNumber     string     `json:"license_number,omitempty"`
	LicenseExpiry     *time.Time `json:"license_expiry,omitempty"`
	LastRegistryCheck *time.Time `json:"last_registry_check,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// RegistryCheckResponse is the HTTP response for a registry consultation.
type RegistryCheckResponse struct {
	Outcome string `json:"outcome"`
}

// FromSeller converts a seller aggregate to its HTTP representation.
// Document refs stay internal; they never appear on the wire.
func FromSeller(s *models.Seller) *SellerResponse {
	return &SellerResponse{
		ID:                s.ID.String(),
		DisplayName:       s.DisplayName,
		CountryCode:       s.CountryCode.String(),
		State:             string(s.State),
		LicenseNumber:     s.LicenseNumber,
		LicenseExpiry:     s.LicenseExpiry,
		LastRegistryCheck: s.LastRegistryCheck,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}
