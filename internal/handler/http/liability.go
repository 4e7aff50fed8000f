package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LiabilityHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListOutstanding(w http.ResponseWriter, r *http.Request)
	ListByEmployee(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type liabilityHandlerImpl struct {
	liabilityService liability.LiabilityService
}

func NewLiabilityHandler(liabilityService liability.LiabilityService) LiabilityHandler {
	return &liabilityHandlerImpl{liabilityService: liabilityService}
}

func (h *liabilityHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req liability.CreateLiabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.liabilityService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Liability created successfully", result)
}

func (h *liabilityHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.liabilityService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *liabilityHandlerImpl) ListOutstanding(w http.ResponseWriter, r *http.Request) {
	items, err := h.liabilityService.ListOutstanding(r.Context(), chi.URLParam(r, "employeeId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, liability.ToResponses(items))
}

func (h *liabilityHandlerImpl) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	result, err := h.liabilityService.ListByEmployee(r.Context(), chi.URLParam(r, "employeeId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *liabilityHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.liabilityService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Liability deleted successfully", nil)
}
