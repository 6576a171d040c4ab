package testutil

import (
	"context"
	"fmt"
	"log"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// StartPostgres starts a PostgreSQL 16 testcontainer and returns its DSN.
// BasicWaitStrategies waits for the second "ready" log line plus the port,
// so the DSN is usable immediately. Call terminate when done.
func StartPostgres(ctx context.Context) (dsn string, terminate func(), err error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("starting postgres container: %w", err)
	}

	terminate = func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			log.Printf("terminating postgres container: %v", err)
		}
	}

	dsn, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return "", nil, fmt.Errorf("getting connection string: %w", err)
	}
	return dsn, terminate, nil
}
