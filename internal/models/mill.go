package models

import "time"

// RiceVariety is the closed set of rice types a mill can specialise in and price.
type RiceVariety string

const (
	VarietyBasmati   RiceVariety = "Basmati"
	VarietyRedRice   RiceVariety = "Red Rice"
	VarietyWhiteRice RiceVariety = "White Rice"
	VarietyBrownRice RiceVariety = "Brown Rice"
)

var RiceVarieties = []RiceVariety{VarietyBasmati, VarietyRedRice, VarietyWhiteRice, VarietyBrownRice}

func (v RiceVariety) Valid() bool {
	for _, known := range RiceVarieties {
		if v == known {
			return true
		}
	}
	return false
}

// VerificationStatus gates a mill's public visibility.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "Pending"
	VerificationVerified VerificationStatus = "Verified"
	VerificationRejected VerificationStatus = "Rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

type MillLocation struct {
	District    string    `json:"district"`
	Address     string    `json:"address,omitempty"`
	Coordinates *GeoPoint `json:"coordinates,omitempty"`
}

type ContactInfo struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Mill struct {
	ID                 string
	Name               string
	OwnerID            string
	Owner              *UserSummary // populated only by admin listings
	Location           MillLocation
	ContactInfo        ContactInfo
	Specializations    []RiceVariety
	VerificationStatus VerificationStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MillFilter narrows mill listings. Empty fields do not filter.
type MillFilter struct {
	OwnerID        string
	District       string
	Specialization RiceVariety
	Status         VerificationStatus
}

// MillSummary is the subset of mill fields attached to public price listings.
type MillSummary struct {
	ID          string       `json:"_id"`
	Name        string       `json:"name"`
	Location    MillLocation `json:"location"`
	ContactInfo ContactInfo  `json:"contactInfo"`
}
