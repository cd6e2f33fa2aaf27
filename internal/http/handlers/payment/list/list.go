// Package list реализует HTTP-обработчик получения платёжного журнала подписки.
package list

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

// Handler обрабатывает запросы платёжного журнала подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выборки платежей.
type Service interface {
	List(ctx context.Context, subscriptionID int) ([]*models.Payment, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Платёжный журнал подписки
// @Description Возвращает все записи платёжного журнала подписки, новые платежи первыми.
// @Tags Payments
// @Produce  json
// @Param id path int true "ID подписки"
// @Success 200 {object} map[string]any "Платёжный журнал"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/{id}/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"

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

	payments, err := h.service.List(r.Context(), id)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		if errors.Is(err, apperr.ErrNotFound) {
			render.JSON(w, r, response.Error("subscription not found"))
		} else {
			render.JSON(w, r, response.Error("failed to list payments"))
		}
		return
	}

	views := make([]models.PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, models.NewPaymentView(p))
	}

	log.Info("payments listed", slog.Int("count", len(views)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(views),
		"payments":   views,
	}))
}
