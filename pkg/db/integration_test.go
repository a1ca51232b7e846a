package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbIntegrationPrefix = "db:integration_test"

// setupIntegrationPool connects to TEST_DATABASE_URL, applies the embedded migrations
// and empties the journal. The test is skipped when the variable is unset.
func setupIntegrationPool(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("db:integration_test - TEST_DATABASE_URL not set, skipping")
	}
	ctx := context.Background()

	pool, err := NewPool(ctx, url)
	if err != nil {
		t.Fatalf("%s - NewPool failed: %v", dbIntegrationPrefix, err)
	}
	t.Cleanup(pool.Close)

	migrationSQL, err := LoadMigrationFiles("")
	if err != nil {
		t.Fatalf("%s - LoadMigrationFiles failed: %v", dbIntegrationPrefix, err)
	}
	if err := RunMigrations(ctx, pool, migrationSQL); err != nil {
		t.Fatalf("%s - RunMigrations failed: %v", dbIntegrationPrefix, err)
	}
	if err := ClearJournal(ctx, pool); err != nil {
		t.Fatalf("%s - ClearJournal failed: %v", dbIntegrationPrefix, err)
	}
	return ctx, pool
}

func TestIntegration_MigrationStatus(t *testing.T) {
	ctx, pool := setupIntegrationPool(t)

	// Migrations are idempotent.
	migrationSQL, _ := LoadMigrationFiles("")
	if err := RunMigrations(ctx, pool, migrationSQL); err != nil {
		t.Fatalf("%s - second RunMigrations failed: %v", dbIntegrationPrefix, err)
	}

	state, err := MigrationStatus(ctx, pool, "")
	if err != nil {
		t.Fatalf("%s - MigrationStatus failed: %v", dbIntegrationPrefix, err)
	}
	if !state.Applied || state.Files != len(migrationSQL) {
		t.Errorf("%s - state = %+v", dbIntegrationPrefix, state)
	}
}

func TestIntegration_InsertListCount(t *testing.T) {
	ctx, pool := setupIntegrationPool(t)
	repo := NewRepository(pool)

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("%s - Ping failed: %v", dbIntegrationPrefix, err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	inserted, err := repo.InsertAPIError(ctx, &APIErrorRecord{
		EventID:      "evt-1",
		Endpoint:     "Admin/GetTitleData",
		Path:         "/Admin/GetTitleData",
		HTTPCode:     400,
		HTTPStatus:   "BadRequest",
		ErrorName:    "InvalidParams",
		ErrorCode:    1000,
		ErrorMessage: "Invalid input parameters",
		ErrorDetails: map[string][]string{"Keys": {"required"}},
		Occurred:     base,
	})
	if err != nil {
		t.Fatalf("%s - InsertAPIError failed: %v", dbIntegrationPrefix, err)
	}
	if inserted.ID == "" || inserted.Recorded.IsZero() {
		t.Errorf("%s - inserted = %+v", dbIntegrationPrefix, inserted)
	}

	if _, err := repo.InsertAPIError(ctx, &APIErrorRecord{
		EventID:   "evt-2",
		Endpoint:  "Event/WriteEvents",
		Path:      "/Event/WriteEvents",
		HTTPCode:  503,
		ErrorName: "ServiceUnavailable",
		Cause:     "dial tcp: connection refused",
		Occurred:  base.Add(time.Second),
	}); err != nil {
		t.Fatalf("%s - InsertAPIError failed: %v", dbIntegrationPrefix, err)
	}

	all, err := repo.ListAPIErrors(ctx, APIErrorFilter{})
	if err != nil {
		t.Fatalf("%s - ListAPIErrors failed: %v", dbIntegrationPrefix, err)
	}
	if len(all) != 2 || all[0].EventID != "evt-2" {
		t.Fatalf("%s - expected newest first, got %+v", dbIntegrationPrefix, all)
	}

	filtered, err := repo.ListAPIErrors(ctx, APIErrorFilter{Endpoint: "Admin/GetTitleData"})
	if err != nil {
		t.Fatalf("%s - ListAPIErrors failed: %v", dbIntegrationPrefix, err)
	}
	if diff := cmp.Diff([]APIErrorRecord{*inserted}, filtered, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("%s - filtered mismatch (-want +got):\n%s", dbIntegrationPrefix, diff)
	}

	since := base.Add(500 * time.Millisecond)
	n, err := repo.CountAPIErrors(ctx, APIErrorFilter{Since: &since})
	if err != nil || n != 1 {
		t.Errorf("%s - CountAPIErrors(since) = %d, %v", dbIntegrationPrefix, n, err)
	}

	if err := ClearJournal(ctx, pool); err != nil {
		t.Fatalf("%s - ClearJournal failed: %v", dbIntegrationPrefix, err)
	}
	if n, _ := repo.CountAPIErrors(ctx, APIErrorFilter{}); n != 0 {
		t.Errorf("%s - expected empty journal after clear, got %d", dbIntegrationPrefix, n)
	}
}
