package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-core/internal/http/response"
	"github.com/magabrotheeeer/billing-core/internal/lib/sl"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Handler обрабатывает запросы на получение списка подписок с фильтрами.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выборки подписок.
type Service interface {
	List(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список подписок
// @Description Возвращает подписки с фильтрацией по статусу, клиенту, проекту и просрочке.
// @Tags Subscriptions
// @Produce  json
// @Param status query string false "Статус подписки (active, paused, cancelled)"
// @Param client_id query int false "ID клиента"
// @Param project_id query int false "ID проекта"
// @Param overdue query bool false "Только просроченные"
// @Param limit query int false "Размер страницы (по умолчанию 10)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список подписок"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/list [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	clientID, _ := strconv.Atoi(r.URL.Query().Get("client_id"))
	projectID, _ := strconv.Atoi(r.URL.Query().Get("project_id"))
	overdue, _ := strconv.ParseBool(r.URL.Query().Get("overdue"))

	filter := models.SubscriptionFilter{
		Status:      models.SubscriptionStatus(r.URL.Query().Get("status")),
		ClientID:    clientID,
		ProjectID:   projectID,
		OverdueOnly: overdue,
		Limit:       limit,
		Offset:      offset,
	}

	subs, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("failed to list subscriptions"))
		return
	}

	now := time.Now().UTC()
	views := make([]models.SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, models.NewSubscriptionView(sub, now))
	}

	log.Info("subscriptions listed", slog.Int("count", len(views)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count":    len(views),
		"subscriptions": views,
	}))
}
