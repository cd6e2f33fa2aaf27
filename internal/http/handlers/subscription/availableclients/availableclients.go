// Package availableclients реализует HTTP-обработчик выборки клиентов,
// доступных для подписки на проект.
package availableclients

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-core/internal/http/response"
	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/sl"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Handler обрабатывает запросы доступных для подписки клиентов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выборки клиентов.
type Service interface {
	AvailableClients(ctx context.Context, projectID int) ([]*models.Client, *models.ProjectInfo, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Клиенты, доступные для подписки на проект
// @Description Возвращает активных клиентов без активной подписки на указанный проект.
// @Tags Subscriptions
// @Produce  json
// @Param id path int true "ID проекта"
// @Success 200 {object} map[string]any "Список клиентов и сведения о проекте"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Проект не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /projects/{id}/available-clients [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.availableclients"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	clients, project, err := h.service.AvailableClients(r.Context(), id)
	if err != nil {
		log.Error("failed to list available clients", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		if errors.Is(err, apperr.ErrNotFound) {
			render.JSON(w, r, response.Error("project not found"))
		} else {
			render.JSON(w, r, response.Error("failed to list available clients"))
		}
		return
	}

	log.Info("available clients listed",
		slog.Int("project_id", id), slog.Int("count", len(clients)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(clients),
		"clients":    clients,
		"project":    project,
	}))
}
