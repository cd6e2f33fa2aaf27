// Package transactions реализует HTTP-обработчик единого журнала транзакций.
//
// Журнал объединяет платежи по подпискам, выручку по проектам и расходы
// в один список, отсортированный по дате от новых к старым.
package transactions

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

// Handler обрабатывает запросы единого журнала транзакций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики журнала транзакций.
type Service interface {
	Transactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Единый журнал транзакций
// @Description Возвращает платежи, выручку по проектам и расходы одним списком, новые записи первыми.
// @Tags Finance
// @Produce  json
// @Param start_date query string false "Начало периода (2006-01-02)"
// @Param end_date query string false "Конец периода (2006-01-02)"
// @Param type query string false "Тип транзакции (income, expense)"
// @Success 200 {object} map[string]any "Журнал транзакций"
// @Failure 400 {object} response.ErrorResponse "Некорректная дата или тип"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /finance/transactions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.finance.transactions"

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

	txType := models.TransactionType(r.URL.Query().Get("type"))
	if txType != "" && txType != models.TransactionIncome && txType != models.TransactionExpense {
		log.Error("invalid transaction type", slog.String("type", string(txType)))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid type, expected income or expense"))
		return
	}

	filter := models.TransactionFilter{
		StartDate: start,
		EndDate:   end,
		Type:      txType,
	}

	txs, err := h.service.Transactions(r.Context(), filter)
	if err != nil {
		log.Error("failed to list transactions", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.Error("could not list transactions"))
		return
	}

	log.Info("transactions listed", slog.Int("count", len(txs)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count":   len(txs),
		"transactions": txs,
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
