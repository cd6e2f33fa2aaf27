// Package record реализует HTTP-обработчик регистрации платежа по подписке.
//
// Handler принимает данные платежа, вызывает бизнес-логику атомарной записи
// в платёжный журнал и возвращает запись журнала вместе с обновлённым
// состоянием подписки.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/billing-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/billing-core/internal/http/response"
	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/sl"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

// Handler обрабатывает запросы на регистрацию платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики регистрации платежа.
type Service interface {
	Record(ctx context.Context, subscriptionID int, createdBy string, req models.DummyPayment) (*models.Payment, *models.Subscription, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать платёж
// @Description Записывает успешный платёж в журнал, продлевает дату списания и сбрасывает счётчик неудач.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param id path int true "ID подписки"
// @Param request body models.DummyPayment true "Данные платежа"
// @Success 200 {object} map[string]any "Платёж и обновлённая подписка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ID или сумма"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 409 {object} response.ErrorResponse "Дубликат transaction_id"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/{id}/payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.record"

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

	var req models.DummyPayment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	createdBy, _ := r.Context().Value(middlewarectx.UserUID).(string)

	payment, sub, err := h.service.Record(r.Context(), id, createdBy, req)
	if err != nil {
		log.Error("failed to record payment", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			render.JSON(w, r, response.Error("subscription not found"))
		case errors.Is(err, apperr.ErrConflict):
			render.JSON(w, r, response.Error("payment with this transaction_id already recorded"))
		case errors.Is(err, apperr.ErrValidation):
			render.JSON(w, r, response.Error("invalid payment data"))
		default:
			render.JSON(w, r, response.Error("could not record payment"))
		}
		return
	}

	log.Info("payment recorded",
		slog.Int("subscription_id", id),
		slog.Int("payment_id", payment.ID),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment":      models.NewPaymentView(payment),
		"subscription": models.NewSubscriptionView(sub, time.Now().UTC()),
	}))
}
