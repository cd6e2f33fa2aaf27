// Package fail реализует HTTP-обработчик регистрации неудачного платежа.
//
// Неудачный платёж попадает в журнал, увеличивает счётчик подряд идущих
// неудач и после третьей приостанавливает подписку.
package fail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
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

// Request — данные запроса на регистрацию неудачного платежа.
type Request struct {
	PaymentDate string `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
}

// Handler обрабатывает запросы на регистрацию неудачного платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики регистрации неудачного платежа.
type Service interface {
	RecordFailure(ctx context.Context, subscriptionID int, date string, createdBy string) (*models.Subscription, error)
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
// @Summary Зарегистрировать неудачный платёж
// @Description Фиксирует неудачную попытку списания. После трёх подряд подписка приостанавливается.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param id path int true "ID подписки"
// @Param request body Request false "Дата неудачного списания (по умолчанию сегодня)"
// @Success 200 {object} map[string]any "Обновлённая подписка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/{id}/payments/fail [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.fail"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	createdBy, _ := r.Context().Value(middlewarectx.UserUID).(string)

	sub, err := h.service.RecordFailure(r.Context(), id, req.PaymentDate, createdBy)
	if err != nil {
		log.Error("failed to record failed payment", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		if errors.Is(err, apperr.ErrNotFound) {
			render.JSON(w, r, response.Error("subscription not found"))
		} else {
			render.JSON(w, r, response.Error("could not record failed payment"))
		}
		return
	}

	log.Info("failed payment recorded",
		slog.Int("subscription_id", id),
		slog.Int("failed_payment_count", sub.FailedPaymentCount),
		slog.String("status", string(sub.Status)),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": models.NewSubscriptionView(sub, time.Now().UTC()),
	}))
}
