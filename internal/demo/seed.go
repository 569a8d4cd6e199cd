// Package demo seeds the in-memory stores with a small cross-border
// dataset for local development: three sellers in different states and a
// handful of listings across the product classes the default rule table
// covers.
package demo

import (
	"context"
	"time"

	catalogmodels "medidrop/internal/catalog/models"
	catalogstore "medidrop/internal/catalog/store"
	"medidrop/internal/registry"
	sellermodels "medidrop/internal/seller/models"
	sellerstore "medidrop/internal/seller/store"
	"medidrop/pkg/domain"
)

// RegistryRecords returns the static registry entries matching the seeded
// sellers, so registry checks against the demo dataset resolve.
func RegistryRecords() []registry.Record {
	return []registry.Record{
		{LicenseNumber: "EG-PH-10021", Country: "EG", Valid: true},
		{LicenseNumber: "EG-PH-20417", Country: "EG", Valid: true},
		{LicenseNumber: "DHA-88341", Country: "AE", Valid: true},
	}
}

// Seed populates the stores. Errors are ignored on purpose: seeding the
// same process twice is a no-op, not a failure.
func Seed(sellers *sellerstore.InMemory, listings *catalogstore.InMemory) {
	ctx := context.Background()
	now := time.Now()
	inOneYear := now.AddDate(1, 0, 0)
	inTwoWeeks := now.AddDate(0, 0, 14)

	pharmaPlus := seedSeller(ctx, sellers, "PharmaPlus Cairo", "EG", "EG-PH-10021", inOneYear, now)
	mediCare := seedSeller(ctx, sellers, "MediCare Egypt", "EG", "EG-PH-20417", inTwoWeeks, now)
	globalHealth := seedSeller(ctx, sellers, "Global Health Trading", "AE", "DHA-88341", inOneYear, now)

	// An unverified seller; its listing blocks until verification.
	newPharm, _ := sellermodels.NewSeller(domain.NewSellerID(), "Nile Pharmacy", domain.CountryCode("EG"), now)
	_ = sellers.Create(ctx, newPharm)

	seedListing(ctx, listings, pharmaPlus, catalogmodels.ListingDetails{
		Name: "Vitamin C 1000mg", Description: "Effervescent tablets, pack of 20",
		Class: "supplement", PriceMinor: 6500, Currency: "EGP", Tags: []string{"vitamins", "immunity"},
	}, now)
	seedListing(ctx, listings, pharmaPlus, catalogmodels.ListingDetails{
		Name: "Paracetamol 500mg", Description: "Pain and fever relief, 24 tablets",
		Class: "otc", PriceMinor: 1800, Currency: "EGP", Tags: []string{"pain-relief"},
	}, now)
	seedListing(ctx, listings, mediCare, catalogmodels.ListingDetails{
		Name: "Amoxicillin 500mg", Description: "Broad-spectrum antibiotic capsules",
		Class: "antibiotic", PriceMinor: 9200, Currency: "EGP",
	}, now)
	seedListing(ctx, listings, globalHealth, catalogmodels.ListingDetails{
		Name: "Insulin Pen 100IU", Description: "Prefilled pen, refrigerated shipping",
		Class: "insulin", ColdChainCapable: true, PriceMinor: 14500, Currency: "AED", Tags: []string{"diabetes", "cold-chain"},
	}, now)
	seedListing(ctx, listings, newPharm.ID, catalogmodels.ListingDetails{
		Name: "Ibuprofen 400mg", Class: "otc", PriceMinor: 2200, Currency: "EGP",
	}, now)
}

func seedSeller(ctx context.Context, sellers *sellerstore.InMemory, name, country, license string, expiry, now time.Time) domain.SellerID {
	seller, err := sellermodels.NewSeller(domain.NewSellerID(), name, domain.CountryCode(country), now)
	if err != nil {
		return domain.SellerID{}
	}
	seller.ApplySubmission(sellermodels.Submission{
		LicenseNumber: license,
		LicenseExpiry: expiry,
		LicenseDocRef: "seeded",
	}, now)
	seller.ApplyApproval(now)
	_ = sellers.Create(ctx, seller)
	return seller.ID
}

func seedListing(ctx context.Context, listings *catalogstore.InMemory, sellerID domain.SellerID, details catalogmodels.ListingDetails, now time.Time) {
	if sellerID.IsNil() {
		return
	}
	listing, err := catalogmodels.NewListing(domain.NewListingID(), sellerID, details, now)
	if err != nil {
		return
	}
	_ = listings.Create(ctx, listing)
}
