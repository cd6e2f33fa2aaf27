// Package comparison реализует HTTP-обработчик помесячного сравнения выручки.
package comparison

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-core/internal/http/response"
	"github.com/magabrotheeeer/billing-core/internal/lib/sl"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Handler обрабатывает запросы помесячного сравнения выручки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики помесячного сравнения.
type Service interface {
	MonthlyComparison(ctx context.Context, months int) ([]models.MonthSummary, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Помесячное сравнение выручки
// @Description Возвращает финансовые сводки по календарным месяцам, по умолчанию за последние 6 месяцев.
// @Tags Finance
// @Produce  json
// @Param months query int false "Количество месяцев (по умолчанию 6)"
// @Success 200 {object} map[string]any "Сводки по месяцам"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /finance/comparison [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.finance.comparison"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	months, err := strconv.Atoi(r.URL.Query().Get("months"))
	if err != nil || months <= 0 {
		months = 0 // сервис подставит значение по умолчанию
	}

	summaries, err := h.service.MonthlyComparison(r.Context(), months)
	if err != nil {
		log.Error("failed to build monthly comparison", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("could not build monthly comparison"))
		return
	}

	log.Info("monthly comparison built", slog.Int("months", len(summaries)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"months": summaries,
	}))
}
