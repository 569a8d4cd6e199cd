package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit entries by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers entries with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: verification transitions, listing pauses, prescription reviews.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers denied operations and other events relevant to
	// abuse monitoring: rejected purchase attempts, invalid transitions.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers advisory events useful for operational
	// visibility, such as pending-expiry warnings. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// SubjectType names the aggregate an entry refers to.
type SubjectType string

const (
	SubjectSeller       SubjectType = "seller"
	SubjectListing      SubjectType = "product_listing"
	SubjectPrescription SubjectType = "prescription"
)

// EventKind enumerates the audit vocabulary. New kinds must be added to
// eventCategories below.
type EventKind string

const (
	// Seller verification lifecycle.
	KindSubmittedForReview EventKind = "submitted_for_review"
	KindReviewResolved     EventKind = "review_resolved"
	KindPendingExpiry      EventKind = "pending_expiry"
	KindLicenseExpired     EventKind = "license_expired"
	KindCountryMismatch    EventKind = "country_mismatch"
	KindRegistryChecked    EventKind = "registry_checked"

	// Listing lifecycle.
	KindListingCreated    EventKind = "listing_created"
	KindListingAutoPaused EventKind = "listing_auto_paused"
	KindListingResumed    EventKind = "listing_resumed"
	KindListingFlagged    EventKind = "listing_flagged"
	KindListingUnblocked  EventKind = "listing_unblocked"

	// Prescription workflow. Entries are recorded against the gated listing.
	KindPrescriptionRequested EventKind = "prescription_requested"
	KindPrescriptionReviewed  EventKind = "prescription_reviewed"
	KindPrescriptionCancelled EventKind = "prescription_cancelled"

	// Denied operations. The failure code travels in Reason so the trail
	// preserves attempts that never mutated state.
	KindOperationDenied EventKind = "operation_denied"
	KindPurchaseBlocked EventKind = "purchase_blocked"
)

// eventCategories maps each event kind to its category.
var eventCategories = map[EventKind]EventCategory{
	KindSubmittedForReview:    CategoryCompliance,
	KindReviewResolved:        CategoryCompliance,
	KindLicenseExpired:        CategoryCompliance,
	KindCountryMismatch:       CategoryCompliance,
	KindListingAutoPaused:     CategoryCompliance,
	KindListingResumed:        CategoryCompliance,
	KindListingFlagged:        CategoryCompliance,
	KindListingUnblocked:      CategoryCompliance,
	KindPrescriptionRequested: CategoryCompliance,
	KindPrescriptionReviewed:  CategoryCompliance,
	KindPrescriptionCancelled: CategoryCompliance,

	KindOperationDenied: CategorySecurity,
	KindPurchaseBlocked: CategorySecurity,

	KindPendingExpiry:   CategoryOperations,
	KindRegistryChecked: CategoryOperations,
	KindListingCreated:  CategoryOperations,
}

// Category returns the EventCategory for this event kind.
// Unknown kinds default to CategoryOperations.
func (k EventKind) Category() EventCategory {
	if cat, ok := eventCategories[k]; ok {
		return cat
	}
	return CategoryOperations
}

// Entry is a single append-only audit record. Keep it transport-agnostic so
// stores and sinks can fan out.
type Entry struct {
	ID          uuid.UUID
	Category    EventCategory
	SubjectType SubjectType
	SubjectID   string
	Kind        EventKind
	Timestamp   time.Time
	// ActorID tracks who performed the action: a seller, a buyer, an admin
	// reviewer, or "system" for sweep-driven transitions.
	ActorID string
	// Decision carries the outcome for resolution events ("approved",
	// "rejected", "blocked").
	Decision string
	// Reason holds the failure code for denied operations, or a short
	// explanation for transitions.
	Reason string
	// Detail is free text for anything the fixed fields cannot carry.
	Detail string
	// RequestID correlates the entry with the HTTP request that caused it.
	RequestID string
}
