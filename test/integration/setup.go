package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"orders-api/internal/auth"
	"orders-api/internal/cache"
	"orders-api/internal/config"
	"orders-api/internal/database"
	"orders-api/internal/handler"
	"orders-api/internal/mail"
	"orders-api/internal/metrics"
	"orders-api/internal/model"
	"orders-api/internal/repository"
	"orders-api/internal/router"
	"orders-api/internal/service"
	"orders-api/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "123456"
	testSecret    = "integration-secret-0123456789abcdef"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB creates a PostgreSQL test container with the schema and seed data applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	hash, err := auth.NewBcryptHasher(4).Hash(adminPassword)
	if err != nil {
		t.Fatalf("failed to hash admin password: %v", err)
	}
	seed := database.SeedConfig{
		AdminEmail:        adminEmail,
		AdminPasswordHash: hash,
		AdminFirstName:    "Admin",
		AdminLastName:     "Orders",
	}
	if err := database.Seed(ctx, pool, seed, logger); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
	}
}

// recordingSender keeps every message instead of delivering it.
type recordingSender struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) last(email string) (mail.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ToEmail == email {
			return s.messages[i], true
		}
	}
	return mail.Message{}, false
}

// testApp is the fully wired HTTP API over the test database.
type testApp struct {
	handler http.Handler
	mailer  *recordingSender
	files   string
}

func setupTestApp(t *testing.T, testDB *TestDB) *testApp {
	t.Helper()

	logger := zerolog.Nop()
	pool := testDB.Pool
	dir := t.TempDir()

	files, err := storage.NewLocalStorage(dir, "http://localhost/files", logger)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	m := metrics.New()
	mailer := &recordingSender{}
	tokens := auth.NewTokenService(testSecret, time.Hour)
	combos := cache.NewNoop()

	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewTemporalOrderRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	countries := service.NewReferenceService[model.Country](service.EntityCountry, repository.NewCountryRepository(pool, logger), combos, logger)
	states := service.NewReferenceService[model.State](service.EntityState, repository.NewStateRepository(pool, logger), combos, logger)
	cities := service.NewReferenceService[model.City](service.EntityCity, repository.NewCityRepository(pool, logger), combos, logger)
	categories := service.NewReferenceService[model.Category](service.EntityCategory, repository.NewCategoryRepository(pool, logger), combos, logger)

	accounts := service.NewAccountService(service.AccountDeps{
		Users:       userRepo,
		Tokens:      tokens,
		Hasher:      auth.NewBcryptHasher(4),
		Mailer:      mailer,
		Files:       files,
		Metrics:     m,
		FrontendURL: "http://localhost",
	}, logger)

	handlers := router.Handlers{
		Countries:  handler.NewReferenceHandler(service.EntityCountry, countries, logger),
		States:     handler.NewReferenceHandler(service.EntityState, states, logger),
		Cities:     handler.NewReferenceHandler(service.EntityCity, cities, logger),
		Categories: handler.NewReferenceHandler(service.EntityCategory, categories, logger),
		Products:   handler.NewProductHandler(service.NewProductService(productRepo, files, logger), logger),
		Carts:      handler.NewCartHandler(service.NewCartService(cartRepo, productRepo, userRepo, logger), logger),
		Orders:     handler.NewOrderHandler(service.NewOrderService(orderRepo, cartRepo, productRepo, userRepo, m, logger), logger),
		Accounts:   handler.NewAccountHandler(accounts, logger),
	}

	opts := router.Options{
		Tokens:   tokens,
		Metrics:  m,
		FilesDir: dir,
		Health:   pool.Ping,
	}

	return &testApp{
		handler: router.New(handlers, opts, logger),
		mailer:  mailer,
		files:   dir,
	}
}
