package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/training-crm/internal/application"
)

type leadService interface {
	CreateLead(ctx context.Context, input application.LeadInput) (application.Lead, error)
	GetLead(ctx context.Context, id string) (application.Lead, error)
	ListLeads(ctx context.Context, filter application.LeadFilter) ([]application.Lead, error)
	UpdateLead(ctx context.Context, id string, input application.LeadInput) (application.Lead, error)
	ConvertLead(ctx context.Context, id string) (application.Lead, error)
	DeleteLead(ctx context.Context, id string) error
}

type LeadHandler struct {
	service   leadService
	responder responder
}

func NewLeadHandler(service leadService, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{service: service, responder: newResponder(logger)}
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if errs := validateRequest(req); errs != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  errs,
		})
		return
	}

	lead, err := h.service.CreateLead(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, leadResponse{Lead: toLeadDTO(lead)})
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	leads, err := h.service.ListLeads(r.Context(), buildLeadFilter(r.URL.Query()))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listLeadsResponse{Leads: toLeadDTOs(leads)})
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := LeadIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLeadID)
		return
	}

	lead, err := h.service.GetLead(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, leadResponse{Lead: toLeadDTO(lead)})
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := LeadIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLeadID)
		return
	}

	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	lead, err := h.service.UpdateLead(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, leadResponse{Lead: toLeadDTO(lead)})
}

func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := LeadIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLeadID)
		return
	}

	lead, err := h.service.ConvertLead(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, leadResponse{Lead: toLeadDTO(lead)})
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := LeadIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLeadID)
		return
	}

	if err := h.service.DeleteLead(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type leadRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	Source    string `json:"source"`
	EntryDate string `json:"entry_date"`
	Notes     string `json:"notes"`
}

func (r leadRequest) toInput() application.LeadInput {
	input := application.LeadInput{
		Name:      strings.TrimSpace(r.Name),
		Email:     strings.TrimSpace(r.Email),
		Phone:     strings.TrimSpace(r.Phone),
		EntryDate: parseTimestamp(r.EntryDate),
		Notes:     r.Notes,
	}
	if r.Status != "" {
		if status, ok := application.ParseLeadStatus(r.Status); ok {
			input.Status = status
		} else {
			input.Status = application.LeadStatus(r.Status)
		}
	}
	if r.Source != "" {
		input.Source = application.Source(r.Source)
	}
	return input
}

func buildLeadFilter(values url.Values) application.LeadFilter {
	filter := application.LeadFilter{
		Search: strings.TrimSpace(values.Get("search")),
	}
	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		if status, ok := application.ParseLeadStatus(raw); ok {
			filter.Status = status
		}
	}
	if raw := strings.TrimSpace(values.Get("source")); raw != "" {
		filter.Source = application.Source(raw)
	}
	return filter
}

type leadResponse struct {
	Lead leadDTO `json:"lead"`
}

type listLeadsResponse struct {
	Leads []leadDTO `json:"leads"`
}

type leadDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Status    string `json:"status"`
	Source    string `json:"source,omitempty"`
	EntryDate string `json:"entry_date"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toLeadDTO(lead application.Lead) leadDTO {
	return leadDTO{
		ID:        lead.ID,
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Status:    string(lead.Status),
		Source:    string(lead.Source),
		EntryDate: formatTimestamp(lead.EntryDate),
		Notes:     lead.Notes,
		CreatedAt: formatTimestamp(lead.CreatedAt),
		UpdatedAt: formatTimestamp(lead.UpdatedAt),
	}
}

func toLeadDTOs(leads []application.Lead) []leadDTO {
	if len(leads) == 0 {
		return nil
	}
	out := make([]leadDTO, 0, len(leads))
	for _, lead := range leads {
		out = append(out, toLeadDTO(lead))
	}
	return out
}
