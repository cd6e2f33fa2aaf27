// Package summary реализует HTTP-обработчик финансовой сводки за период.
//
// Handler разбирает необязательные границы периода из query-параметров,
// по умолчанию сводка строится с начала текущего месяца по сегодня.
package summary

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-core/internal/http/response"
	"github.com/magabrotheeeer/billing-core/internal/lib/sl"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Handler обрабатывает запросы финансовой сводки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики финансовой сводки.
type Service interface {
	Summarize(ctx context.Context, start, end *time.Time) (models.Summary, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Финансовая сводка
// @Description Возвращает выручку по подпискам и проектам, расходы, чистую прибыль и ожидаемую выручку за период.
// @Tags Finance
// @Produce  json
// @Param start_date query string false "Начало периода (2006-01-02)"
// @Param end_date query string false "Конец периода (2006-01-02)"
// @Success 200 {object} map[string]any "Финансовая сводка"
// @Failure 400 {object} response.ErrorResponse "Некорректная дата"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /finance/summary [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.finance.summary"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	start, err := parseDateParam(r, "start_date")
	if err != nil {
		log.Error("invalid start_date", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid start_date, expected format 2006-01-02"))
		return
	}
	end, err := parseDateParam(r, "end_date")
	if err != nil {
		log.Error("invalid end_date", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid end_date, expected format 2006-01-02"))
		return
	}

	summary, err := h.service.Summarize(r.Context(), start, end)
	if err != nil {
		log.Error("failed to build financial summary", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("could not build financial summary"))
		return
	}

	log.Info("financial summary built",
		slog.String("total_revenue", summary.TotalRevenue.String()),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"summary": summary,
	}))
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
