package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_grocery/internal/delivery"
	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/importer"
	"github.com/go-chi/chi/v5"
)

type DeliveryQuoter interface {
	Resolve(ctx context.Context, postalCode string) (domain.DeliveryQuote, error)
}

type PincodeImporter interface {
	Import(ctx context.Context, r io.Reader) (importer.Result, error)
}

type PincodeHandler struct {
	delivery DeliveryQuoter
	importer PincodeImporter
	timeout  time.Duration
}

func NewPincodeHandler(quoter DeliveryQuoter, imp PincodeImporter, timeout time.Duration) *PincodeHandler {
	return &PincodeHandler{
		delivery: quoter,
		importer: imp,
		timeout:  timeout,
	}
}

type DeliveryCostResponseDTO struct {
	DeliveryCost domain.Rupees `json:"deliveryCost"`
	Distance     float64       `json:"distance"`
	PostOffice   string        `json:"postOffice"`
	IsDefault    bool          `json:"isDefault"`
}

// GET /api/v1/pincode/delivery-cost/{pincode}
func (h *PincodeHandler) DeliveryCost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	pincode := chi.URLParam(r, "pincode")
	if !delivery.ValidPostalCode(pincode) {
		respondError(w, http.StatusBadRequest, "invalid_pincode", "Invalid pincode format. Must be a 6-digit number.")
		return
	}

	quote, err := h.delivery.Resolve(ctx, pincode)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, DeliveryCostResponseDTO{
		DeliveryCost: quote.DeliveryCost,
		Distance:     quote.DistanceKm,
		PostOffice:   quote.OriginLabel,
		IsDefault:    quote.IsDefault,
	})
}

// POST /api/v1/pincode/import, multipart form with an xlsx "file".
func (h *PincodeHandler) Import(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_file", "an xlsx file is required in the \"file\" field")
		return
	}
	defer file.Close()

	// imports run longer than a regular request
	ctx, cancel := context.WithTimeout(r.Context(), 10*h.timeout)
	defer cancel()

	res, err := h.importer.Import(ctx, file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "import_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}
