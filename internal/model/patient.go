package model

import (
	"fmt"
	"time"
)

// BlacklistReason enumerates why a patient may be refused service.
type BlacklistReason string

const (
	BlacklistStaffAbuse         BlacklistReason = "STAFF_ABUSE"
	BlacklistDebtDefault        BlacklistReason = "DEBT_DEFAULT"
	BlacklistFrivolousLawsuit   BlacklistReason = "FRIVOLOUS_LAWSUIT"
	BlacklistPropertyDamage     BlacklistReason = "PROPERTY_DAMAGE"
	BlacklistIntoxication       BlacklistReason = "INTOXICATION"
	BlacklistDisruptiveBehavior BlacklistReason = "DISRUPTIVE_BEHAVIOR"
	BlacklistPolicyViolation    BlacklistReason = "POLICY_VIOLATION"
	BlacklistOther              BlacklistReason = "OTHER"
)

func (r BlacklistReason) Valid() bool {
	switch r {
	case BlacklistStaffAbuse, BlacklistDebtDefault, BlacklistFrivolousLawsuit, BlacklistPropertyDamage,
		BlacklistIntoxication, BlacklistDisruptiveBehavior, BlacklistPolicyViolation, BlacklistOther:
		return true
	}
	return false
}

const (
	// NoShowBlockThreshold is the number of consecutive no-shows that blocks booking.
	NoShowBlockThreshold = 3
	// BlockReasonExcessiveNoShows is stored in booking_block_reason when the threshold is hit.
	BlockReasonExcessiveNoShows = "EXCESSIVE_NO_SHOWS"
	// GuardianRequiredUnderAge is the age below which guardian contact details are mandatory.
	GuardianRequiredUnderAge = 16
)

type Patient struct {
	ID                    int        `json:"patient_id"`
	Code                  string     `json:"patient_code"`
	AccountID             *string    `json:"account_id,omitempty"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	Email                 *string    `json:"email,omitempty"`
	Phone                 *string    `json:"phone,omitempty"`
	DateOfBirth           *Date      `json:"date_of_birth,omitempty"`
	Address               *string    `json:"address,omitempty"`
	Gender                *string    `json:"gender,omitempty"`
	MedicalHistory        *string    `json:"medical_history,omitempty"`
	Allergies             *string    `json:"allergies,omitempty"`
	EmergencyContactName  *string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone,omitempty"`
	GuardianName          *string    `json:"guardian_name,omitempty"`
	GuardianPhone         *string    `json:"guardian_phone,omitempty"`
	GuardianRelationship  *string    `json:"guardian_relationship,omitempty"`
	IsActive              bool       `json:"is_active"`
	ConsecutiveNoShows    int        `json:"consecutive_no_shows"`
	IsBookingBlocked      bool       `json:"is_booking_blocked"`
	BookingBlockReason    *string    `json:"booking_block_reason,omitempty"`
	BlockedAt             *time.Time `json:"blocked_at,omitempty"`
	IsBlacklisted         bool       `json:"is_blacklisted"`
	BlacklistReason       *string    `json:"blacklist_reason,omitempty"`
	BlacklistNotes        *string    `json:"blacklist_notes,omitempty"`
	BlacklistedBy         *string    `json:"blacklisted_by,omitempty"`
	BlacklistedAt         *time.Time `json:"blacklisted_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// RecordNoShow increments the no-show streak and blocks booking at the threshold.
func (p *Patient) RecordNoShow(now time.Time) {
	p.ConsecutiveNoShows++
	if p.ConsecutiveNoShows >= NoShowBlockThreshold && !p.IsBookingBlocked {
		reason := BlockReasonExcessiveNoShows
		p.IsBookingBlocked = true
		p.BookingBlockReason = &reason
		p.BlockedAt = &now
	}
}

// ResetNoShows clears the streak after an attended visit. Existing blocks stay until unbanned.
func (p *Patient) ResetNoShows() {
	p.ConsecutiveNoShows = 0
}

// Unban clears the booking block and the no-show streak.
func (p *Patient) Unban() {
	p.ConsecutiveNoShows = 0
	p.IsBookingBlocked = false
	p.BookingBlockReason = nil
	p.BlockedAt = nil
}

// PatientCodeFor derives the public patient code from its numeric id.
func PatientCodeFor(id int) string {
	return fmt.Sprintf("BN-%d", 1000+id)
}

// DuplicateMatchType classifies how an existing patient resembles a new one.
type DuplicateMatchType string

const (
	MatchExact        DuplicateMatchType = "EXACT_MATCH"
	MatchNameAndPhone DuplicateMatchType = "NAME_AND_PHONE"
	MatchNameAndDOB   DuplicateMatchType = "NAME_AND_DOB"
	MatchPhone        DuplicateMatchType = "PHONE"
)

// Confidence is the score reported for each match type.
func (t DuplicateMatchType) Confidence() int {
	switch t {
	case MatchExact:
		return 95
	case MatchNameAndPhone:
		return 85
	case MatchNameAndDOB:
		return 80
	case MatchPhone:
		return 60
	}
	return 0
}

type DuplicateMatch struct {
	PatientCode     string             `json:"patient_code"`
	FullName        string             `json:"full_name"`
	Phone           *string            `json:"phone,omitempty"`
	DateOfBirth     *Date              `json:"date_of_birth,omitempty"`
	MatchType       DuplicateMatchType `json:"match_type"`
	ConfidenceScore int                `json:"confidence_score"`
}

type DuplicateCheckResult struct {
	HasDuplicates bool             `json:"has_duplicates"`
	Matches       []DuplicateMatch `json:"matches"`
	Message       string           `json:"message"`
}
