// Package refund реализует HTTP-обработчик возврата платежа.
//
// Запись журнала не удаляется, а помечается статусом refunded;
// собранные суммы подписки при этом не пересчитываются.
package refund

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

// Handler обрабатывает запросы на возврат платежа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики возврата платежа.
type Service interface {
	Refund(ctx context.Context, paymentID int) (*models.Payment, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Вернуть платёж
// @Description Помечает завершённый платёж как возвращённый. Повторный возврат невозможен.
// @Tags Payments
// @Produce  json
// @Param id path int true "ID платежа"
// @Success 200 {object} map[string]any "Возвращённый платёж"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 422 {object} response.ErrorResponse "Платёж нельзя вернуть"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /payments/{id}/refund [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.refund"

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

	payment, err := h.service.Refund(r.Context(), id)
	if err != nil {
		log.Error("failed to refund payment", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			render.JSON(w, r, response.Error("payment not found"))
		case errors.Is(err, apperr.ErrInvalidState):
			render.JSON(w, r, response.Error("only completed payments can be refunded"))
		default:
			render.JSON(w, r, response.Error("could not refund payment"))
		}
		return
	}

	log.Info("payment refunded", slog.Int("payment_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment": models.NewPaymentView(payment),
	}))
}
