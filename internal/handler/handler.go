package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"payment-offers-api/internal/models"
	"payment-offers-api/internal/service"
	"payment-offers-api/internal/validation"
	"payment-offers-api/internal/vendorapi"
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	service     *service.Service
	maxBodySize int64
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	MaxBodySize int64
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		MaxBodySize: 10 << 20, // vendor payloads run to a few MB; 10MB default
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts NewHandlerOptions) *Handler {
	return &Handler{
		service:     svc,
		maxBodySize: opts.MaxBodySize,
	}
}

// IngestOffers handles POST /offer
func (h *Handler) IngestOffers(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent abuse
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.IngestOffersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	if len(req.OfferAPIResponse) == 0 {
		h.respondError(w, http.StatusBadRequest, "offerApiResponse is required in request body")
		return
	}

	payload, err := vendorapi.Parse(req.OfferAPIResponse)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "offerApiResponse is not valid JSON")
		return
	}

	response, err := h.service.IngestOffers(r.Context(), payload)
	if err != nil {
		log.Printf("error ingesting offers: %v", err)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// HighestDiscount handles GET /highest-discount
func (h *Handler) HighestDiscount(w http.ResponseWriter, r *http.Request) {
	amountToPay, err := validation.ParseAmountToPay(r.URL.Query().Get("amountToPay"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := models.DiscountQuery{
		AmountToPay:       amountToPay,
		BankName:          validation.OptionalString(r.URL.Query().Get("bankName")),
		PaymentInstrument: validation.OptionalString(r.URL.Query().Get("paymentInstrument")),
	}

	result, err := h.service.HighestDiscount(r.Context(), query)
	if err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			h.respondError(w, http.StatusBadRequest, ve.Error())
			return
		}
		log.Printf("error resolving highest discount: %v", err)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
