package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/billing-core/internal/lib/apperr"
	"github.com/magabrotheeeer/billing-core/internal/lib/billingcycle"
	"github.com/magabrotheeeer/billing-core/internal/models"
)

func testSubscription(clientID, projectID int) *models.Subscription {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Subscription{
		ClientID:        clientID,
		ProjectID:       projectID,
		Plan:            "premium",
		MonthlyPrice:    decimal.RequireFromString("149.99"),
		Currency:        "USD",
		BillingCycle:    billingcycle.Monthly,
		StartDate:       start,
		NextBillingDate: billingcycle.Next(start, billingcycle.Monthly),
		Status:          models.StatusActive,
		PaymentMethod:   "credit_card",
		Features:        []models.Feature{models.FeatureAPIAccess, models.FeatureSSO},
		TotalPaid:       decimal.Zero,
	}
}

func TestStorage_CreateAndGetSubscription(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	clientID := factory.CreateClient(t, "acme")
	projectID := factory.CreateProject(t, clientID, "website", decimal.RequireFromString("5000"), "active")

	ctx := context.Background()
	sub := testSubscription(clientID, projectID)
	userLimit := 25
	sub.UserLimit = &userLimit

	id, err := storage.CreateSubscription(ctx, sub)
	require.NoError(t, err)
	require.Greater(t, id, 0)

	got, err := storage.GetSubscription(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, clientID, got.ClientID)
	assert.Equal(t, projectID, got.ProjectID)
	assert.Equal(t, "premium", got.Plan)
	assert.True(t, got.MonthlyPrice.Equal(decimal.RequireFromString("149.99")))
	assert.Equal(t, billingcycle.Monthly, got.BillingCycle)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), got.NextBillingDate)
	assert.ElementsMatch(t, []models.Feature{models.FeatureAPIAccess, models.FeatureSSO}, got.Features)
	require.NotNil(t, got.UserLimit)
	assert.Equal(t, 25, *got.UserLimit)
	assert.True(t, got.TotalPaid.IsZero())
	assert.Equal(t, 0, got.FailedPaymentCount)
}

func TestStorage_GetSubscription_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	_, err := storage.GetSubscription(context.Background(), 424242)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_CreateSubscription_DuplicateActive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	clientID := factory.CreateClient(t, "acme")
	projectID := factory.CreateProject(t, clientID, "website", decimal.RequireFromString("5000"), "active")

	ctx := context.Background()
	_, err := storage.CreateSubscription(ctx, testSubscription(clientID, projectID))
	require.NoError(t, err)

	exists, err := storage.ExistsActiveSubscription(ctx, clientID, projectID)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = storage.CreateSubscription(ctx, testSubscription(clientID, projectID))
	require.ErrorIs(t, err, apperr.ErrConflict)

	// Отменённая подписка на ту же пару конфликт не вызывает
	cancelled := testSubscription(clientID, projectID)
	cancelled.Status = models.StatusCancelled
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cancelled.EndDate = &end
	_, err = storage.CreateSubscription(ctx, cancelled)
	require.NoError(t, err)
}

func TestStorage_UpdateSubscription(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	clientID := factory.CreateClient(t, "acme")
	projectID := factory.CreateProject(t, clientID, "website", decimal.RequireFromString("5000"), "active")

	ctx := context.Background()
	sub := testSubscription(clientID, projectID)
	id, err := storage.CreateSubscription(ctx, sub)
	require.NoError(t, err)

	sub.ID = id
	sub.Plan = "enterprise"
	sub.MonthlyPrice = decimal.RequireFromString("499.00")
	sub.Notes = "upgraded"
	require.NoError(t, storage.UpdateSubscription(ctx, sub))

	got, err := storage.GetSubscription(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "enterprise", got.Plan)
	assert.True(t, got.MonthlyPrice.Equal(decimal.RequireFromString("499.00")))
	assert.Equal(t, "upgraded", got.Notes)

	missing := testSubscription(clientID, projectID)
	missing.ID = 424242
	err = storage.UpdateSubscription(ctx, missing)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_ListSubscriptions_Filters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	clientA := factory.CreateClient(t, "acme")
	clientB := factory.CreateClient(t, "globex")
	projectA := factory.CreateProject(t, clientA, "website", decimal.RequireFromString("5000"), "active")
	projectB := factory.CreateProject(t, clientB, "mobile-app", decimal.RequireFromString("12000"), "active")

	ctx := context.Background()

	active := testSubscription(clientA, projectA)
	_, err := storage.CreateSubscription(ctx, active)
	require.NoError(t, err)

	paused := testSubscription(clientB, projectB)
	paused.Status = models.StatusPaused
	_, err = storage.CreateSubscription(ctx, paused)
	require.NoError(t, err)

	all, err := storage.ListSubscriptions(ctx, models.SubscriptionFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyPaused, err := storage.ListSubscriptions(ctx, models.SubscriptionFilter{
		Status: models.StatusPaused, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, onlyPaused, 1)
	assert.Equal(t, clientB, onlyPaused[0].ClientID)

	byClient, err := storage.ListSubscriptions(ctx, models.SubscriptionFilter{ClientID: clientA, Limit: 10})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, projectA, byClient[0].ProjectID)

	// next_billing_date 2024-01-31 давно в прошлом, активная подписка просрочена
	overdue, err := storage.ListSubscriptions(ctx, models.SubscriptionFilter{OverdueOnly: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, models.StatusActive, overdue[0].Status)
}

func TestStorage_DeleteSubscriptionPermanently(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	clientID := factory.CreateClient(t, "acme")
	projectID := factory.CreateProject(t, clientID, "website", decimal.RequireFromString("5000"), "active")

	ctx := context.Background()
	sub := testSubscription(clientID, projectID)
	id, err := storage.CreateSubscription(ctx, sub)
	require.NoError(t, err)

	// Активную подписку навсегда удалить нельзя
	err = storage.DeleteSubscriptionPermanently(ctx, id)
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	_, _, err = storage.ApplyPayment(ctx, &models.Payment{
		SubscriptionID: id,
		Amount:         decimal.RequireFromString("149.99"),
		PaymentDate:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		TransactionID:  "txn-delete-1",
	})
	require.NoError(t, err)

	got, err := storage.GetSubscription(ctx, id)
	require.NoError(t, err)
	require.NoError(t, got.Cancel("contract ended", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, storage.UpdateSubscription(ctx, got))

	require.NoError(t, storage.DeleteSubscriptionPermanently(ctx, id))

	_, err = storage.GetSubscription(ctx, id)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	payments, err := storage.ListPayments(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, payments)

	err = storage.DeleteSubscriptionPermanently(ctx, id)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_SubscriptionStatistics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	clientID := factory.CreateClient(t, "acme")
	projectA := factory.CreateProject(t, clientID, "website", decimal.RequireFromString("5000"), "active")
	projectB := factory.CreateProject(t, clientID, "mobile-app", decimal.RequireFromString("12000"), "active")

	ctx := context.Background()

	active := testSubscription(clientID, projectA)
	activeID, err := storage.CreateSubscription(ctx, active)
	require.NoError(t, err)

	paused := testSubscription(clientID, projectB)
	paused.Status = models.StatusPaused
	_, err = storage.CreateSubscription(ctx, paused)
	require.NoError(t, err)

	_, _, err = storage.ApplyPayment(ctx, &models.Payment{
		SubscriptionID: activeID,
		Amount:         decimal.RequireFromString("149.99"),
		PaymentDate:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		TransactionID:  "txn-stats-1",
	})
	require.NoError(t, err)

	stats, err := storage.SubscriptionStatistics(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Paused)
	assert.Equal(t, 0, stats.Cancelled)
	assert.Equal(t, 1, stats.Overdue)
	assert.True(t, stats.MonthlyRevenue.Equal(decimal.RequireFromString("149.99")))
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("149.99")))
}
