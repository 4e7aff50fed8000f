package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SalaryListHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	View(w http.ResponseWriter, r *http.Request)
}

type salaryListHandlerImpl struct {
	salaryListService salarylist.SalaryListService
}

func NewSalaryListHandler(salaryListService salarylist.SalaryListService) SalaryListHandler {
	return &salaryListHandlerImpl{salaryListService: salaryListService}
}

func (h *salaryListHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req salarylist.CreateSalaryListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.salaryListService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary list created successfully", result)
}

func (h *salaryListHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.salaryListService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// View reports entry status derived from paid payroll runs.
func (h *salaryListHandlerImpl) View(w http.ResponseWriter, r *http.Request) {
	result, err := h.salaryListService.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
