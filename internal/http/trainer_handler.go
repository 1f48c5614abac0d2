package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/training-crm/internal/application"
)

type trainerService interface {
	CreateTrainer(ctx context.Context, input application.TrainerInput) (application.Trainer, error)
	GetTrainer(ctx context.Context, id string) (application.Trainer, error)
	ListTrainers(ctx context.Context, activeOnly bool) ([]application.Trainer, error)
	UpdateTrainer(ctx context.Context, id string, input application.TrainerInput) (application.Trainer, error)
	DeleteTrainer(ctx context.Context, id string) error
}

type TrainerHandler struct {
	service   trainerService
	responder responder
}

func NewTrainerHandler(service trainerService, logger *slog.Logger) *TrainerHandler {
	return &TrainerHandler{service: service, responder: newResponder(logger)}
}

func (h *TrainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req trainerRequest
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

	trainer, err := h.service.CreateTrainer(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, trainerResponse{Trainer: toTrainerDTO(trainer)})
}

func (h *TrainerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	activeOnly := strings.EqualFold(r.URL.Query().Get("active"), "true")
	trainers, err := h.service.ListTrainers(r.Context(), activeOnly)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTrainersResponse{Trainers: toTrainerDTOs(trainers)})
}

func (h *TrainerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := TrainerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTrainerID)
		return
	}

	trainer, err := h.service.GetTrainer(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, trainerResponse{Trainer: toTrainerDTO(trainer)})
}

func (h *TrainerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := TrainerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTrainerID)
		return
	}

	var req trainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	trainer, err := h.service.UpdateTrainer(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, trainerResponse{Trainer: toTrainerDTO(trainer)})
}

func (h *TrainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := TrainerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTrainerID)
		return
	}

	if err := h.service.DeleteTrainer(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type trainerRequest struct {
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Specialties []string `json:"specialties"`
	Source      string   `json:"source"`
	Active      *bool    `json:"active"`
}

func (r trainerRequest) toInput() application.TrainerInput {
	input := application.TrainerInput{
		Name:        strings.TrimSpace(r.Name),
		Email:       strings.TrimSpace(r.Email),
		Phone:       strings.TrimSpace(r.Phone),
		Specialties: append([]string(nil), r.Specialties...),
		Active:      true,
	}
	if r.Source != "" {
		input.Source = application.Source(r.Source)
	}
	if r.Active != nil {
		input.Active = *r.Active
	}
	return input
}

type trainerResponse struct {
	Trainer trainerDTO `json:"trainer"`
}

type listTrainersResponse struct {
	Trainers []trainerDTO `json:"trainers"`
}

type trainerDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	Source      string   `json:"source,omitempty"`
	Active      bool     `json:"active"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toTrainerDTO(trainer application.Trainer) trainerDTO {
	return trainerDTO{
		ID:          trainer.ID,
		Name:        trainer.Name,
		Email:       trainer.Email,
		Phone:       trainer.Phone,
		Specialties: append([]string(nil), trainer.Specialties...),
		Source:      string(trainer.Source),
		Active:      trainer.Active,
		CreatedAt:   formatTimestamp(trainer.CreatedAt),
		UpdatedAt:   formatTimestamp(trainer.UpdatedAt),
	}
}

func toTrainerDTOs(trainers []application.Trainer) []trainerDTO {
	if len(trainers) == 0 {
		return nil
	}
	out := make([]trainerDTO, 0, len(trainers))
	for _, trainer := range trainers {
		out = append(out, toTrainerDTO(trainer))
	}
	return out
}
