package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"coinlizard/config"
	"coinlizard/pkg/storage/postgres"
)

// go test -v --run ^TestPostgresInvalidDSN$
func TestPostgresInvalidDSN(t *testing.T) {
	invalidDSN := "host=invalid port=5432 user=fail password=fail dbname=fail sslmode=disable connect_timeout=1"

	_, err := postgres.NewClient(invalidDSN)
	if err == nil {
		t.Fatal("expected error for invalid DSN, got nil")
	}
}

// Requires a running Postgres; set COINLIZARD_TEST_POSTGRES=1 to enable.
// go test -v --run ^TestPostgresClientWithConfig$
func TestPostgresClientWithConfig(t *testing.T) {
	if os.Getenv("COINLIZARD_TEST_POSTGRES") == "" {
		t.Skip("COINLIZARD_TEST_POSTGRES not set")
	}

	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "coinlizard_test",
		SSLMode:  "disable",

		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
	}

	client, err := postgres.Initialize(cfg, "dev", true)
	if err != nil {
		t.Fatalf("failed to initialize Postgres client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if !client.IsHealthy(ctx) {
		t.Fatal("expected healthy DB connection")
	}
}
