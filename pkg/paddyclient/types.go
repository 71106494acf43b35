package paddyclient

import (
	"bytes"
	"encoding/json"
	"time"
)

type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type Profile struct {
	Name    string `json:"name"`
	Contact struct {
		Phone string `json:"phone,omitempty"`
	} `json:"contact"`
	Location struct {
		District    string    `json:"district,omitempty"`
		GeoLocation *GeoPoint `json:"geoLocation,omitempty"`
	} `json:"location"`
}

type User struct {
	ID               string    `json:"_id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	Profile          Profile   `json:"profile"`
	AccountStatus    string    `json:"accountStatus"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// Session is returned by Register and Login.
type Session struct {
	User
	Token string `json:"token"`
}

type RegisterInput struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Profile  Profile `json:"profile"`
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

type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Mill struct {
	ID                 string       `json:"_id"`
	Name               string       `json:"name"`
	Owner              OwnerRef     `json:"owner"`
	Location           MillLocation `json:"location"`
	ContactInfo        ContactInfo  `json:"contactInfo"`
	Specializations    []string     `json:"specializations"`
	VerificationStatus string       `json:"verificationStatus"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// MillInput is the body of create and update mill requests. Nil or empty fields
// are left unchanged on update.
type MillInput struct {
	Name            string        `json:"name,omitempty"`
	Location        *MillLocation `json:"location,omitempty"`
	ContactInfo     *ContactInfo  `json:"contactInfo,omitempty"`
	Specializations []string      `json:"specializations,omitempty"`
}

type MillSummary struct {
	ID          string       `json:"_id"`
	Name        string       `json:"name"`
	Location    MillLocation `json:"location"`
	ContactInfo ContactInfo  `json:"contactInfo"`
}

type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type Price struct {
	ID               string       `json:"_id"`
	Mill             MillRef      `json:"millId"`
	RiceVariety      string       `json:"riceVariety"`
	PricePerKg       float64      `json:"pricePerKg"`
	UpdateTimestamp  time.Time    `json:"updateTimestamp"`
	HistoricalPrices []PricePoint `json:"historicalPrices"`
	District         string       `json:"district,omitempty"`
}

type PriceInput struct {
	MillID      string  `json:"millId"`
	RiceVariety string  `json:"riceVariety"`
	PricePerKg  float64 `json:"pricePerKg"`
	District    string  `json:"district,omitempty"`
}

// MillRef is a price's millId, which the server sends either as a bare id or
// as a populated mill summary.
type MillRef struct {
	ID      string
	Summary *MillSummary
}

func (m *MillRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var s MillSummary
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		m.ID, m.Summary = s.ID, &s
		return nil
	}
	var id string
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	m.ID, m.Summary = id, nil
	return nil
}

func (m MillRef) MarshalJSON() ([]byte, error) {
	if m.Summary != nil {
		return json.Marshal(m.Summary)
	}
	return json.Marshal(m.ID)
}

// OwnerRef is a mill's owner: an id, or a user summary in admin listings.
type OwnerRef struct {
	ID      string
	Summary *UserSummary
}

func (o *OwnerRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var s UserSummary
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		o.ID, o.Summary = s.ID, &s
		return nil
	}
	var id string
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	o.ID, o.Summary = id, nil
	return nil
}

func (o OwnerRef) MarshalJSON() ([]byte, error) {
	if o.Summary != nil {
		return json.Marshal(o.Summary)
	}
	return json.Marshal(o.ID)
}
