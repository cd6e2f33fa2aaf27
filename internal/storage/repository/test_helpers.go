package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/billing-core/internal/migrations"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateClient создает тестового клиента и возвращает его ID
func (f *TestDataFactory) CreateClient(t *testing.T, name string) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO clients (name, email, status)
		VALUES ($1, $2, 'active') RETURNING id`,
		name, name+"@example.com").Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateProject создает тестовый проект и возвращает его ID
func (f *TestDataFactory) CreateProject(t *testing.T, clientID int, name string, budget decimal.Decimal, status string) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO projects (client_id, name, budget, status)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		clientID, name, budget, status).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateExpense создает тестовый расход и возвращает его ID
func (f *TestDataFactory) CreateExpense(t *testing.T, description string, amount decimal.Decimal,
	date time.Time, status string) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO expenses (description, category, amount, expense_date, status)
		VALUES ($1, 'general', $2, $3, $4) RETURNING id`,
		description, amount, date, status).Scan(&id)
	require.NoError(t, err)
	return id
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL
// и применяет к ней миграции проекта.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(dsn)
		if err == nil {
			if err = storage.DB.Ping(); err == nil {
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if pgContainer != nil {
			_ = pgContainer.Terminate(ctx)
		}
	}

	return storage, cleanup
}
