package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/mfatlas/pkg/config"
)

const pingTimeout = 5 * time.Second

// DB is the shared Postgres pool for repositories and migrations
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool          *pgxpool.Pool
	ServerVersion string
}

// poolConfig maps DatabaseConfig onto a pgxpool config.
// Sessions run in UTC so DATE columns round-trip as calendar dates.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	pc.MaxConns = int32(cfg.MaxConns)
	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	if cfg.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	params := pc.ConnConfig.RuntimeParams
	params["timezone"] = "UTC"
	if cfg.ApplicationName != "" {
		params["application_name"] = cfg.ApplicationName
	}
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}
	return pc, nil
}

// New opens the pool and checks the server answers
// ⭐ SSOT: 유일하게 pgxpool.NewWithConfig()를 호출하는 함수
func New(cfg *config.Config) (*DB, error) {
	pc, err := poolConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	db := &DB{Pool: pool}
	if err := pool.QueryRow(ctx, `SHOW server_version`).Scan(&db.ServerVersion); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Close closes the pool; safe to call twice
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is accessible
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// HealthStatus reports connectivity, schema state and pool usage
type HealthStatus struct {
	Healthy           bool          `json:"healthy"`
	CheckedAt         time.Time     `json:"checked_at"`
	Latency           time.Duration `json:"latency"`
	ServerVersion     string        `json:"server_version"`
	SchemaVersion     string        `json:"schema_version,omitempty"` // 마지막 적용 마이그레이션
	PendingMigrations int           `json:"pending_migrations"`
	Error             string        `json:"error,omitempty"`
	Pool              PoolStats     `json:"pool"`
}

// PoolStats is the subset of pgxpool statistics shown by test-db
type PoolStats struct {
	MaxConns      int32 `json:"max_conns"`
	TotalConns    int32 `json:"total_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	IdleConns     int32 `json:"idle_conns"`
	// Acquires that had to wait for a free connection
	EmptyAcquires int64         `json:"empty_acquires"`
	AcquireWait   time.Duration `json:"acquire_wait"`
}

// Stats returns the current pool statistics
func (db *DB) Stats() PoolStats {
	s := db.Pool.Stat()
	return PoolStats{
		MaxConns:      s.MaxConns(),
		TotalConns:    s.TotalConns(),
		AcquiredConns: s.AcquiredConns(),
		IdleConns:     s.IdleConns(),
		EmptyAcquires: s.EmptyAcquireCount(),
		AcquireWait:   s.AcquireDuration(),
	}
}

// HealthCheck pings the server and compares schema_migrations with the embedded files.
// A reachable database with pending migrations is still healthy; callers decide.
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		CheckedAt:     time.Now(),
		ServerVersion: db.ServerVersion,
	}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.Latency = time.Since(start)

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		status.Error = err.Error()
		return status, err
	}
	migrations, err := Migrations()
	if err != nil {
		return status, err
	}
	for _, m := range migrations {
		if applied[m.Version] {
			status.SchemaVersion = m.Version
		} else {
			status.PendingMigrations++
		}
	}

	status.Pool = db.Stats()
	status.Healthy = true
	return status, nil
}
