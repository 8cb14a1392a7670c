package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pou26/rugas/internal/customer"
)

type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateCustomerRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CustomerHandler struct {
	svc      customer.Service
	validate *validator.Validate
}

func NewCustomerHandler(svc customer.Service) *CustomerHandler {
	return &CustomerHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Post("/customers", h.handleCreateCustomer)
	router.Get("/customers", h.handleListCustomers)
	router.Get("/customers/{id}", h.handleGetCustomerByID)
	router.Put("/customers/{id}", h.handleUpdateCustomer)
}

func (h *CustomerHandler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}

	c := customer.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	created, err := h.svc.CreateCustomer(r.Context(), &c)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create customer")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err))
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CustomerHandler) handleGetCustomerByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	c, err := h.svc.GetCustomerByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err))
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}

	c := customer.Customer{
		ID:      id,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	if err := h.svc.UpdateCustomer(r.Context(), &c); err != nil {
		log.Warn().Err(err).Stringer("customer_id", id).Msg("Failed to update customer")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err))
		return
	}

	updated, err := h.svc.GetCustomerByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err))
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *CustomerHandler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	customers, err := h.svc.ListCustomers(r.Context(), limit, offset)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err))
		return
	}

	respondWithJSON(w, http.StatusOK, customers)
}
