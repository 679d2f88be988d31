package containers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	mysqlcontainer "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/persistence/mysql"
)

const (
	mysqlTestDatabase = "h2hdb_test"
	mysqlTestUser     = "h2hdb"
	mysqlTestPassword = "h2hdb"
)

// MySQLContainer represents a running MySQL testcontainer with the
// core schema already applied.
type MySQLContainer struct {
	Container testcontainers.Container
	Store     *mysql.Store
	Config    mysql.Config
}

// NewMySQLContainer starts a MySQL 8 testcontainer and opens a Store
// against it; mysql.Open applies the full schema before returning.
func NewMySQLContainer(ctx context.Context, t *testing.T) (*MySQLContainer, error) {
	t.Helper()

	mysqlC, err := mysqlcontainer.RunContainer(ctx,
		testcontainers.WithImage("mysql:8"),
		mysqlcontainer.WithDatabase(mysqlTestDatabase),
		mysqlcontainer.WithUsername(mysqlTestUser),
		mysqlcontainer.WithPassword(mysqlTestPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	host, err := mysqlC.Host(ctx)
	if err != nil {
		_ = mysqlC.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mysql host: %w", err)
	}
	port, err := mysqlC.MappedPort(ctx, "3306/tcp")
	if err != nil {
		_ = mysqlC.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mysql port: %w", err)
	}

	cfg := mysql.DefaultConfig()
	cfg.Host = host
	cfg.Port = port.Int()
	cfg.User = mysqlTestUser
	cfg.Password = mysqlTestPassword
	cfg.Database = mysqlTestDatabase

	store, err := mysql.Open(ctx, cfg)
	if err != nil {
		_ = mysqlC.Terminate(ctx)
		return nil, fmt.Errorf("failed to open mysql store: %w", err)
	}

	return &MySQLContainer{
		Container: mysqlC,
		Store:     store,
		Config:    cfg,
	}, nil
}

// Cleanup truncates every table so the next test starts from an empty
// database, without paying for a fresh container.
func (mc *MySQLContainer) Cleanup(ctx context.Context, t *testing.T) {
	t.Helper()

	const disableFK = "SET FOREIGN_KEY_CHECKS = 0"
	const enableFK = "SET FOREIGN_KEY_CHECKS = 1"

	db := mc.Store.DB
	_, err := db.ExecContext(ctx, disableFK)
	require.NoError(t, err, "failed to disable foreign key checks")
	defer func() { _, _ = db.ExecContext(ctx, enableFK) }()

	var tables []string
	err = db.SelectContext(ctx, &tables, "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE()")
	require.NoError(t, err, "failed to list tables")

	for _, table := range tables {
		_, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE `%s`", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}
}

// Terminate closes the store and stops the container.
func (mc *MySQLContainer) Terminate(ctx context.Context) error {
	if mc.Store != nil {
		_ = mc.Store.Close()
	}
	if mc.Container != nil {
		if err := mc.Container.Terminate(ctx); err != nil {
			return fmt.Errorf("terminate mysql container: %w", err)
		}
	}
	return nil
}
