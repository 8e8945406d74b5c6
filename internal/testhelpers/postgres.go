package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/emodiary/apiserver/config"
	"github.com/emodiary/apiserver/internal/db"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

// Postgres is a throwaway database container with the schema applied.
type Postgres struct {
	Config config.DatabaseConfig
	DSN    string
	DB     *sql.DB

	container tc.Container
}

// Terminate closes the pool and removes the container.
func (p *Postgres) Terminate(ctx context.Context) error {
	if p.DB != nil {
		_ = p.DB.Close()
	}
	return p.container.Terminate(ctx)
}

// StartPostgres launches a Postgres container, runs the migrations and opens a pool. The
// container is terminated when the test finishes. Requires a reachable Docker daemon.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := StartPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("%v", err)
	}
	t.Cleanup(func() {
		if err := pg.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})
	return pg
}

// StartPostgresContainer is StartPostgres for callers without a *testing.T, such as TestMain.
// The caller must Terminate the result.
func StartPostgresContainer(ctx context.Context) (*Postgres, error) {
	cfg := config.DatabaseConfig{User: "diary", Password: "password", DBName: "diary_test"}
	req := tc.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     cfg.User,
			"POSTGRES_PASSWORD": cfg.Password,
			"POSTGRES_DB":       cfg.DBName,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(90 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}
	pg := &Postgres{Config: cfg, container: container}

	host, err := container.Host(ctx)
	if err != nil {
		_ = pg.Terminate(context.Background())
		return nil, fmt.Errorf("postgres host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = pg.Terminate(context.Background())
		return nil, fmt.Errorf("postgres port: %w", err)
	}
	pg.Config.Host = host
	pg.Config.Port = port.Int()

	pg.DSN = db.PostgresURL(pg.Config)
	if err := db.MigrateUp(pg.DSN); err != nil {
		_ = pg.Terminate(context.Background())
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pg.DB, err = db.OpenURL(ctx, pg.DSN)
	if err != nil {
		_ = pg.Terminate(context.Background())
		return nil, fmt.Errorf("open database: %w", err)
	}
	return pg, nil
}
