package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paddygate/paddygate/internal/models"
	"github.com/paddygate/paddygate/internal/services"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// PriceService defines the interface for price business logic
type PriceService interface {
	List(ctx context.Context, filter models.PriceFilter) ([]*models.Price, error)
	Post(ctx context.Context, caller *models.User, in services.PostPriceInput) (*models.Price, error)
	History(ctx context.Context, millID string, variety models.RiceVariety) ([]models.PricePoint, error)
}

type PriceHandler struct {
	service PriceService
}

func NewPriceHandler(service PriceService) *PriceHandler {
	return &PriceHandler{service: service}
}

// PostPriceRequest only checks presence. Variety and bounds are checked by the
// service once the mill and its owner are known.
type PostPriceRequest struct {
	MillID      string   `json:"millId" validate:"required"`
	RiceVariety string   `json:"riceVariety" validate:"required"`
	PricePerKg  *float64 `json:"pricePerKg" validate:"required"`
	District    string   `json:"district"`
}

// ListPrices handles GET /prices?district=&riceVariety=
func (h *PriceHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prices, err := h.service.List(r.Context(), models.PriceFilter{
		District:    q.Get("district"),
		RiceVariety: models.RiceVariety(q.Get("riceVariety")),
	})
	if err != nil {
		writeServiceError(w, err, errorMessages{})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, pricesToResponse(prices))
}

// PostPrice handles POST /prices. Broadcasting the result over the relay is
// left to the caller.
func (h *PriceHandler) PostPrice(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req PostPriceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	price, err := h.service.Post(r.Context(), user, services.PostPriceInput{
		MillID:      req.MillID,
		RiceVariety: models.RiceVariety(req.RiceVariety),
		PricePerKg:  *req.PricePerKg,
		District:    req.District,
	})
	if err != nil {
		writeServiceError(w, err, errorMessages{
			notFound:   "Mill not found",
			forbidden:  "Not authorized to update prices for this mill",
			badRequest: "Invalid price details",
		})
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, priceModelToResponse(price))
}

// PriceHistory handles GET /prices/history/{millId}/{riceVariety}
func (h *PriceHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(),
		chi.URLParam(r, "millId"),
		models.RiceVariety(chi.URLParam(r, "riceVariety")),
	)
	if err != nil {
		writeServiceError(w, err, errorMessages{notFound: "Price not found"})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, history)
}
