package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/billingcycle"
)

func newTestSubscription() *Subscription {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Subscription{
		ID:              1,
		ClientID:        10,
		ProjectID:       20,
		Plan:            "premium",
		MonthlyPrice:    decimal.NewFromInt(100),
		Currency:        "USD",
		BillingCycle:    billingcycle.Monthly,
		StartDate:       start,
		NextBillingDate: start,
		Status:          StatusActive,
		TotalPaid:       decimal.Zero,
	}
}

func TestSubscription_RecordPayment(t *testing.T) {
	sub := newTestSubscription()
	payDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := sub.RecordPayment(decimal.NewFromInt(100), payDate)
	require.NoError(t, err)

	assert.True(t, sub.TotalPaid.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), sub.NextBillingDate)
	assert.Equal(t, 0, sub.FailedPaymentCount)
	require.NotNil(t, sub.LastPaymentDate)
	assert.Equal(t, payDate, *sub.LastPaymentDate)
	assert.True(t, sub.LastPaymentAmount.Equal(decimal.NewFromInt(100)))
}

func TestSubscription_RecordPayment_AdvancesSchedule(t *testing.T) {
	sub := newTestSubscription()
	payDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Дата следующего списания строго растёт после каждого платежа,
	// независимо от момента регистрации платежа
	prev := sub.NextBillingDate
	for i := range 5 {
		require.NoError(t, sub.RecordPayment(decimal.NewFromInt(100), payDate.AddDate(0, 0, i)))
		assert.True(t, sub.NextBillingDate.After(prev), "next billing date must strictly increase")
		prev = sub.NextBillingDate
	}
	assert.True(t, sub.TotalPaid.Equal(decimal.NewFromInt(500)))
}

func TestSubscription_RecordPayment_ExactSum(t *testing.T) {
	sub := newTestSubscription()
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	amounts := []string{"99.99", "0.01", "149.50", "33.33"}
	for _, a := range amounts {
		amount, err := decimal.NewFromString(a)
		require.NoError(t, err)
		require.NoError(t, sub.RecordPayment(amount, date))
	}

	want, _ := decimal.NewFromString("282.83")
	assert.True(t, sub.TotalPaid.Equal(want), "total_paid must be exact, got %s", sub.TotalPaid)
}

func TestSubscription_RecordPayment_ResetsFailedCount(t *testing.T) {
	sub := newTestSubscription()
	sub.FailedPaymentCount = 2

	require.NoError(t, sub.RecordPayment(decimal.NewFromInt(100), time.Now()))
	assert.Equal(t, 0, sub.FailedPaymentCount)
}

func TestSubscription_RecordPayment_UnpausesSubscription(t *testing.T) {
	sub := newTestSubscription()
	sub.Status = StatusPaused
	sub.FailedPaymentCount = 3

	require.NoError(t, sub.RecordPayment(decimal.NewFromInt(100), time.Now()))
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, 0, sub.FailedPaymentCount)
}

func TestSubscription_RecordPayment_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(s *Subscription)
		amount  decimal.Decimal
		wantErr error
	}{
		{
			name:    "cancelled subscription rejects payment",
			prepare: func(s *Subscription) { s.Status = StatusCancelled },
			amount:  decimal.NewFromInt(100),
			wantErr: apperr.ErrInvalidState,
		},
		{
			name:    "zero amount",
			prepare: func(_ *Subscription) {},
			amount:  decimal.Zero,
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "negative amount",
			prepare: func(_ *Subscription) {},
			amount:  decimal.NewFromInt(-5),
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newTestSubscription()
			tt.prepare(sub)
			err := sub.RecordPayment(tt.amount, time.Now())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubscription_RecordFailedPayment(t *testing.T) {
	sub := newTestSubscription()

	// Две неудачи подписку не останавливают
	require.NoError(t, sub.RecordFailedPayment())
	require.NoError(t, sub.RecordFailedPayment())
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, 2, sub.FailedPaymentCount)

	// Третья — переводит в паузу
	require.NoError(t, sub.RecordFailedPayment())
	assert.Equal(t, StatusPaused, sub.Status)
	assert.Equal(t, 3, sub.FailedPaymentCount)
}

func TestSubscription_Cancel(t *testing.T) {
	sub := newTestSubscription()
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, sub.Cancel("client churned", today))
	assert.Equal(t, StatusCancelled, sub.Status)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, today, *sub.EndDate)
	assert.Contains(t, sub.Notes, "client churned")

	assert.False(t, sub.IsExpired(today))
	assert.True(t, sub.IsExpired(today.AddDate(0, 0, 1)))

	// Повторная отмена — ошибка состояния
	err := sub.Cancel("again", today)
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	// Платёж по отменённой подписке отклоняется
	err = sub.RecordPayment(decimal.NewFromInt(100), today)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestSubscription_Reactivate(t *testing.T) {
	today := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("from paused after three failures", func(t *testing.T) {
		sub := newTestSubscription()
		for range 3 {
			require.NoError(t, sub.RecordFailedPayment())
		}
		require.Equal(t, StatusPaused, sub.Status)

		require.NoError(t, sub.Reactivate(today))
		assert.Equal(t, StatusActive, sub.Status)
		assert.Equal(t, 0, sub.FailedPaymentCount)
		assert.Equal(t, today.AddDate(0, 0, 30), sub.NextBillingDate)
	})

	t.Run("from cancelled", func(t *testing.T) {
		sub := newTestSubscription()
		require.NoError(t, sub.Cancel("", today))
		require.NoError(t, sub.Reactivate(today))
		assert.Equal(t, StatusActive, sub.Status)
		assert.Nil(t, sub.EndDate)
	})

	t.Run("active subscription cannot be reactivated", func(t *testing.T) {
		sub := newTestSubscription()
		err := sub.Reactivate(today)
		require.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}

func TestSubscription_UpdatePlan(t *testing.T) {
	sub := newTestSubscription()

	require.NoError(t, sub.UpdatePlan("enterprise", decimal.NewFromInt(250)))
	assert.Equal(t, "enterprise", sub.Plan)
	assert.True(t, sub.MonthlyPrice.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, StatusActive, sub.Status)

	err := sub.UpdatePlan("", decimal.NewFromInt(1))
	require.ErrorIs(t, err, apperr.ErrValidation)
	err = sub.UpdatePlan("basic", decimal.Zero)
	require.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, sub.Cancel("", time.Now()))
	err = sub.UpdatePlan("basic", decimal.NewFromInt(1))
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestSubscription_DerivedPredicates(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("trial overlay", func(t *testing.T) {
		sub := newTestSubscription()
		trialEnd := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		sub.TrialEndDate = &trialEnd

		assert.True(t, sub.IsTrial(today))
		assert.True(t, sub.IsTrial(trialEnd))
		assert.False(t, sub.IsTrial(trialEnd.AddDate(0, 0, 1)))
		// Пробный период не меняет механику active/paused
		assert.Equal(t, StatusActive, sub.Status)
	})

	t.Run("overdue only while active", func(t *testing.T) {
		sub := newTestSubscription()
		sub.NextBillingDate = today.AddDate(0, 0, -1)
		assert.True(t, sub.IsOverdue(today))

		sub.Status = StatusPaused
		assert.False(t, sub.IsOverdue(today))
	})

	t.Run("days until billing", func(t *testing.T) {
		sub := newTestSubscription()
		sub.NextBillingDate = today.AddDate(0, 0, 12)
		assert.Equal(t, 12, sub.DaysUntilBilling(today))
	})

	t.Run("duration in months uses fixed 30-day convention", func(t *testing.T) {
		sub := newTestSubscription()
		sub.StartDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 2, sub.DurationMonths(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))

		end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		sub.EndDate = &end
		assert.Equal(t, 4, sub.DurationMonths(time.Now()))
	})
}

func TestParseFeatures(t *testing.T) {
	features, err := ParseFeatures([]string{"api_access", "sso"})
	require.NoError(t, err)
	assert.Equal(t, []Feature{FeatureAPIAccess, FeatureSSO}, features)

	_, err = ParseFeatures([]string{"api_access", "time_travel"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}
