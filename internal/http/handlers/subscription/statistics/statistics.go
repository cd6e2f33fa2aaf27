// Package statistics реализует HTTP-обработчик сводной статистики по подпискам.
package statistics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-core/internal/http/response"
	"github.com/magabrotheeeer/billing-core/internal/lib/sl"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Handler обрабатывает запросы сводной статистики по подпискам.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики подсчёта статистики.
type Service interface {
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статистика по подпискам
// @Description Возвращает количество подписок по статусам, месячную выручку и общую собранную сумму.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Сводная статистика"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/statistics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.statistics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		log.Error("failed to collect statistics", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("could not collect statistics"))
		return
	}

	log.Info("statistics collected", slog.Int("total", stats.Total))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"statistics": stats,
	}))
}
