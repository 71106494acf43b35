package handlers

import (
	"time"

	"github.com/paddygate/paddygate/internal/models"
)

// Field names follow the JSON contract the web client already speaks.

type GeoPointRequest struct {
	Type        string    `json:"type" validate:"omitempty,oneof=Point"`
	Coordinates []float64 `json:"coordinates" validate:"omitempty,len=2"`
}

func (g *GeoPointRequest) toModel() *models.GeoPoint {
	if g == nil || len(g.Coordinates) == 0 {
		return nil
	}
	return &models.GeoPoint{Type: "Point", Coordinates: g.Coordinates}
}

type ProfileRequest struct {
	Name    string `json:"name" validate:"required"`
	Contact struct {
		Phone string `json:"phone" validate:"omitempty,phone10"`
	} `json:"contact"`
	Location struct {
		District    string           `json:"district"`
		GeoLocation *GeoPointRequest `json:"geoLocation" validate:"omitempty"`
	} `json:"location"`
}

func (p ProfileRequest) toModel() models.Profile {
	return models.Profile{
		Name:    p.Name,
		Contact: models.ProfileContact{Phone: p.Contact.Phone},
		Location: models.ProfileLocation{
			District:    p.Location.District,
			GeoLocation: p.Location.GeoLocation.toModel(),
		},
	}
}

type MillLocationRequest struct {
	District    string           `json:"district" validate:"required"`
	Address     string           `json:"address"`
	Coordinates *GeoPointRequest `json:"coordinates" validate:"omitempty"`
}

func (l MillLocationRequest) toModel() models.MillLocation {
	return models.MillLocation{
		District:    l.District,
		Address:     l.Address,
		Coordinates: l.Coordinates.toModel(),
	}
}

type ContactInfoRequest struct {
	Phone string `json:"phone" validate:"omitempty,phone10"`
	Email string `json:"email" validate:"omitempty,mailaddr"`
}

func (c ContactInfoRequest) toModel() models.ContactInfo {
	return models.ContactInfo{Phone: c.Phone, Email: c.Email}
}

func varietiesFromStrings(in []string) []models.RiceVariety {
	out := make([]models.RiceVariety, len(in))
	for i, v := range in {
		out[i] = models.RiceVariety(v)
	}
	return out
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID               string               `json:"_id"`
	Username         string               `json:"username"`
	Email            string               `json:"email"`
	Role             models.Role          `json:"role"`
	Profile          models.Profile       `json:"profile"`
	AccountStatus    models.AccountStatus `json:"accountStatus"`
	RegistrationDate time.Time            `json:"registrationDate"`
}

func userModelToResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Role:             u.Role,
		Profile:          u.Profile,
		AccountStatus:    u.AccountStatus,
		RegistrationDate: u.RegistrationDate,
	}
}

func usersToResponse(users []*models.User) []*UserResponse {
	out := make([]*UserResponse, len(users))
	for i, u := range users {
		out[i] = userModelToResponse(u)
	}
	return out
}

// AuthResponse is the user plus a bearer token.
type AuthResponse struct {
	UserResponse
	Token string `json:"token"`
}

// MillResponse.Owner is the owner id, or {_id, username, email} in admin listings.
type MillResponse struct {
	ID                 string                    `json:"_id"`
	Name               string                    `json:"name"`
	Owner              any                       `json:"owner"`
	Location           models.MillLocation       `json:"location"`
	ContactInfo        models.ContactInfo        `json:"contactInfo"`
	Specializations    []models.RiceVariety      `json:"specializations"`
	VerificationStatus models.VerificationStatus `json:"verificationStatus"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

func millModelToResponse(m *models.Mill) *MillResponse {
	var owner any = m.OwnerID
	if m.Owner != nil {
		owner = m.Owner
	}
	specs := m.Specializations
	if specs == nil {
		specs = []models.RiceVariety{}
	}
	return &MillResponse{
		ID:                 m.ID,
		Name:               m.Name,
		Owner:              owner,
		Location:           m.Location,
		ContactInfo:        m.ContactInfo,
		Specializations:    specs,
		VerificationStatus: m.VerificationStatus,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func millsToResponse(mills []*models.Mill) []*MillResponse {
	out := make([]*MillResponse, len(mills))
	for i, m := range mills {
		out[i] = millModelToResponse(m)
	}
	return out
}

// PriceResponse.MillID is the mill id, or the mill summary in listings.
type PriceResponse struct {
	ID               string              `json:"_id"`
	MillID           any                 `json:"millId"`
	RiceVariety      models.RiceVariety  `json:"riceVariety"`
	PricePerKg       float64             `json:"pricePerKg"`
	UpdateTimestamp  time.Time           `json:"updateTimestamp"`
	HistoricalPrices []models.PricePoint `json:"historicalPrices"`
	District         string              `json:"district,omitempty"`
}

func priceModelToResponse(p *models.Price) *PriceResponse {
	var mill any = p.MillID
	if p.Mill != nil {
		mill = p.Mill
	}
	history := p.HistoricalPrices
	if history == nil {
		history = []models.PricePoint{}
	}
	return &PriceResponse{
		ID:               p.ID,
		MillID:           mill,
		RiceVariety:      p.RiceVariety,
		PricePerKg:       p.PricePerKg,
		UpdateTimestamp:  p.UpdateTimestamp,
		HistoricalPrices: history,
		District:         p.District,
	}
}

func pricesToResponse(prices []*models.Price) []*PriceResponse {
	out := make([]*PriceResponse, len(prices))
	for i, p := range prices {
		out[i] = priceModelToResponse(p)
	}
	return out
}
