package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gacha_backend/internal/database"
	"gacha_backend/internal/model"
	"gacha_backend/internal/repository/history_repo"
	"gacha_backend/internal/repository/owned_repo"
	"gacha_backend/internal/repository/pity_repo"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("docker/container runtime unavailable: %v", r)
		}
	}()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "gacha",
			"POSTGRES_PASSWORD": "gacha",
			"POSTGRES_DB":       "gacha",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker/container runtime unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, _ := ctr.Host(ctx)
	port, _ := ctr.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://gacha:gacha@%s:%s/gacha?sslmode=disable", host, port.Port())

	pool, err := database.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.MigratePostgres(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// повторная миграция не должна падать
	if err := database.MigratePostgres(ctx, pool); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
	return pool
}

func TestPostgresRepositoriesIntegration(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	pity := pity_repo.NewPityRepository(pool)
	owned := owned_repo.NewOwnedItemRepository(pool)
	history := history_repo.NewHistoryRepository(pool)
	trManager := manager.Must(trmpgx.NewDefaultFactory(pool))

	star := model.Identity{Title: "Star", Category: "relic", Rarity: model.Legendary}
	now := time.Now().UTC()

	err := trManager.Do(ctx, func(txCtx context.Context) error {
		state, err := pity.GetForUpdate(txCtx, "u1", 90)
		if err != nil {
			return err
		}
		if state.Counter != 0 || state.Threshold != 90 {
			return fmt.Errorf("unexpected new state %+v", state)
		}
		for i, want := range []int{1, 2} {
			got, err := owned.Acquire(txCtx, "u1", star, "b1", now.Add(time.Duration(i)*time.Millisecond))
			if err != nil {
				return err
			}
			if got != want {
				return fmt.Errorf("acquire #%d = %d, want %d", i, got, want)
			}
		}
		state.Counter = 12
		state.UpdatedAt = now
		if err := pity.Save(txCtx, state); err != nil {
			return err
		}
		return history.Append(txCtx, &model.BatchEntry{
			BatchID:        "b1",
			UserID:         "u1",
			IdempotencyKey: "k1",
			RequestedSize:  2,
			Results: []model.PullOutcome{
				{DrawResult: model.DrawResult{Identity: star, Rarity: model.Legendary, PullID: "b1", Index: 0, DrawnAt: now}, NewCount: 1},
				{DrawResult: model.DrawResult{Identity: star, Rarity: model.Legendary, PullID: "b1", Index: 1, DrawnAt: now}, IsDuplicate: true, NewCount: 2},
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	state, err := pity.Get(ctx, "u1")
	if err != nil || state.Counter != 12 {
		t.Fatalf("pity after commit = %+v, %v, want counter 12", state, err)
	}

	items, err := owned.ListByUser(ctx, "u1")
	if err != nil || len(items) != 1 || items[0].Count != 2 {
		t.Fatalf("owned = %+v, %v, want one item with count 2", items, err)
	}

	entry, err := history.Get(ctx, "b1")
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if len(entry.Results) != 2 || !entry.Results[1].IsDuplicate {
		t.Fatalf("history entry = %+v", entry)
	}

	err = history.Append(ctx, entry)
	if !errors.Is(err, model.ErrBatchExists) {
		t.Fatalf("duplicate Append = %v, want ErrBatchExists", err)
	}

	if _, err := pool.Exec(ctx, "DELETE FROM pull_batches"); err == nil {
		t.Fatal("DELETE on pull_batches succeeded, want append-only error")
	}

	list, err := history.ListByUser(ctx, "u1", 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByUser = %d entries, %v, want 1", len(list), err)
	}
}

func TestPostgresRollbackIntegration(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	owned := owned_repo.NewOwnedItemRepository(pool)
	trManager := manager.Must(trmpgx.NewDefaultFactory(pool))

	boom := errors.New("boom")
	err := trManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := owned.Acquire(txCtx, "u2", model.Identity{Title: "Coin", Category: "misc", Rarity: model.Common}, "b9", time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Do = %v, want boom", err)
	}

	items, err := owned.ListByUser(ctx, "u2")
	if err != nil || len(items) != 0 {
		t.Fatalf("owned after rollback = %+v, %v, want empty", items, err)
	}
}
