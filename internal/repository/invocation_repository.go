package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"binance-mcp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit = 50
	recordTimeout    = 3 * time.Second
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tool_invocations (
    id          UUID PRIMARY KEY,
    tool        TEXT NOT NULL,
    domain      TEXT NOT NULL,
    arguments   JSONB,
    success     BOOLEAN NOT NULL,
    error_kind  TEXT NOT NULL DEFAULT '',
    error_text  TEXT NOT NULL DEFAULT '',
    duration_ms BIGINT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    account     TEXT NOT NULL DEFAULT ''
)`,
	`ALTER TABLE tool_invocations ADD COLUMN IF NOT EXISTS account TEXT NOT NULL DEFAULT ''`,
	`CREATE INDEX IF NOT EXISTS tool_invocations_created_at_idx ON tool_invocations (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS tool_invocations_tool_idx ON tool_invocations (tool, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS tool_invocations_account_idx ON tool_invocations (account, created_at DESC)`,
}

// InvocationRepository persists the audit log of tool dispatches.
type InvocationRepository struct {
	pool   PgxPool
	tracer trace.Tracer
	logger *slog.Logger
}

func NewInvocationRepository(pool PgxPool, tracer trace.Tracer) *InvocationRepository {
	return &InvocationRepository{pool: pool, tracer: tracer, logger: slog.Default()}
}

func (r *InvocationRepository) RunMigrations(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "invocation-repo.migrate")
	defer span.End()

	batch := &pgx.Batch{}
	for _, stmt := range migrations {
		batch.Queue(stmt)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range migrations {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *InvocationRepository) Record(ctx context.Context, inv domain.ToolInvocation) error {
	ctx, span := r.tracer.Start(ctx, "invocation-repo.record",
		trace.WithAttributes(attribute.String("mcp.tool", inv.Tool)),
	)
	defer span.End()

	var args any
	if len(inv.Arguments) > 0 {
		args = string(inv.Arguments)
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO tool_invocations (id, tool, domain, arguments, success, error_kind, error_text, duration_ms, created_at, account)
VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING
`, inv.ID, inv.Tool, inv.Domain, args, inv.Success, inv.ErrorKind, inv.Error, inv.DurationMs, inv.CreatedAt.UTC(), inv.Account)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("record invocation %s: %w", inv.ID, err)
	}
	return nil
}

// Observe records inv and logs failures. The write outlives caller
// cancellation so a finished tool call is still audited.
func (r *InvocationRepository) Observe(ctx context.Context, inv domain.ToolInvocation) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.Record(writeCtx, inv); err != nil {
		r.logger.Warn("invocation audit write failed", "tool", inv.Tool, "error", err)
	}
}

// ListRecent returns the newest invocations of account first.
func (r *InvocationRepository) ListRecent(ctx context.Context, account string, limit int) ([]domain.ToolInvocation, error) {
	ctx, span := r.tracer.Start(ctx, "invocation-repo.list-recent")
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, account, tool, domain, COALESCE(arguments::text, ''), success, error_kind, error_text, duration_ms, created_at
FROM tool_invocations
WHERE account = $1
ORDER BY created_at DESC
LIMIT $2
`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ToolInvocation, 0, limit)
	for rows.Next() {
		var inv domain.ToolInvocation
		var args string
		if err := rows.Scan(
			&inv.ID,
			&inv.Account,
			&inv.Tool,
			&inv.Domain,
			&args,
			&inv.Success,
			&inv.ErrorKind,
			&inv.Error,
			&inv.DurationMs,
			&inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		if args != "" {
			inv.Arguments = []byte(args)
		}
		inv.CreatedAt = inv.CreatedAt.UTC()
		out = append(out, inv)
	}
	return out, rows.Err()
}

// ForAccount returns a reader limited to one account's invocations.
func (r *InvocationRepository) ForAccount(account string) *AccountInvocations {
	return &AccountInvocations{repo: r, account: account}
}

type AccountInvocations struct {
	repo    *InvocationRepository
	account string
}

func (a *AccountInvocations) ListRecent(ctx context.Context, limit int) ([]domain.ToolInvocation, error) {
	return a.repo.ListRecent(ctx, a.account, limit)
}
