package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
	"github.com/dmehra2102/streetfood-connect/pkg/tracing"
)

const aggregateType = "group_order"

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	log         *slog.Logger
	pool        *pgxpool.Pool
	lockTimeout time.Duration
	source      string
	tracer      trace.Tracer
}

// NewRepository returns a repository that waits at most lockTimeout for the
// row lock of an aggregate before failing with a concurrent modification.
func NewRepository(log *slog.Logger, pool *pgxpool.Pool, lockTimeout time.Duration, source string) *Repository {
	return &Repository{
		log:         log.With("component", "grouporder-postgres"),
		pool:        pool,
		lockTimeout: lockTimeout,
		source:      source,
		tracer:      otel.Tracer("grouporder-postgres"),
	}
}

func (r *Repository) Create(ctx context.Context, o *domain.GroupOrder) error {
	ctx, span := r.tracer.Start(ctx, "GroupOrder.Create", trace.WithAttributes(attribute.String("group_order.id", o.ID)))
	defer span.End()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError("begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO group_orders (id, product_id, supplier_id, unit, status, created_by, created_at, updated_at, closed_at, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,1)`,
		o.ID, o.ProductID, o.SupplierID, o.Unit, o.Status, o.CreatedBy, o.CreatedAt, o.UpdatedAt, o.ClosedAt)
	if err != nil {
		return mapError("insert group order", err)
	}
	if err := r.upsertParticipants(ctx, tx, o); err != nil {
		return err
	}
	if err := r.appendOutbox(ctx, tx, o); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit", err)
	}
	o.Version = 1
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.GroupOrder, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, mapError("begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	return load(ctx, tx, id, false)
}

// Update locks the aggregate row for the duration of the transaction, runs
// mutate against the locked state and writes the result guarded by version.
func (r *Repository) Update(ctx context.Context, id string, mutate func(o *domain.GroupOrder) error) (*domain.GroupOrder, error) {
	ctx, span := r.tracer.Start(ctx, "GroupOrder.Update", trace.WithAttributes(attribute.String("group_order.id", id)))
	defer span.End()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, mapError("begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return nil, mapError("set lock_timeout", err)
		}
	}

	o, err := load(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	expected := o.Version
	if err := mutate(o); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `UPDATE group_orders SET status=$2, updated_at=$3, closed_at=$4, version=version+1
		WHERE id=$1 AND version=$5`,
		o.ID, o.Status, o.UpdatedAt, o.ClosedAt, expected)
	if err != nil {
		return nil, mapError("update group order", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("group order %s version %d: %w", id, expected, domain.ErrConcurrentModification)
	}
	if err := r.upsertParticipants(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := r.appendOutbox(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapError("commit", err)
	}
	o.Version = expected + 1
	return o, nil
}

func (r *Repository) ListByVendor(ctx context.Context, vendorID string, limit int) ([]*domain.GroupOrder, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, mapError("begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `SELECT `+orderColumns+` FROM group_orders g
		WHERE EXISTS (SELECT 1 FROM group_order_participants p WHERE p.group_order_id = g.id AND p.vendor_id = $1)
		ORDER BY g.created_at DESC, g.id DESC
		LIMIT $2`, vendorID, limit)
	if err != nil {
		return nil, mapError("list group orders", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, mapError("scan group orders", err)
	}
	if len(orders) == 0 {
		return []*domain.GroupOrder{}, nil
	}

	byID := make(map[string]*domain.GroupOrder, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	prows, err := tx.Query(ctx, `SELECT group_order_id, vendor_id, quantity FROM group_order_participants
		WHERE group_order_id = ANY($1) ORDER BY group_order_id, position`, ids)
	if err != nil {
		return nil, mapError("list participants", err)
	}
	defer prows.Close()
	for prows.Next() {
		var gid string
		var p domain.Participant
		if err := prows.Scan(&gid, &p.VendorID, &p.Quantity); err != nil {
			return nil, mapError("scan participant", err)
		}
		if o, ok := byID[gid]; ok {
			o.Participants = append(o.Participants, p)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, mapError("list participants", err)
	}
	return orders, nil
}

const orderColumns = `g.id, g.product_id, g.supplier_id, g.unit, g.status, g.created_by, g.created_at, g.updated_at, g.closed_at, g.version`

func scanOrder(row pgx.CollectableRow) (*domain.GroupOrder, error) {
	var o domain.GroupOrder
	err := row.Scan(&o.ID, &o.ProductID, &o.SupplierID, &o.Unit, &o.Status, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.ClosedAt, &o.Version)
	if err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	if o.ClosedAt != nil {
		t := o.ClosedAt.UTC()
		o.ClosedAt = &t
	}
	return &o, nil
}

func load(ctx context.Context, q querier, id string, forUpdate bool) (*domain.GroupOrder, error) {
	sql := `SELECT ` + orderColumns + ` FROM group_orders g WHERE g.id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, sql, id)
	if err != nil {
		return nil, mapError("load group order", err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group order %s: %w", id, domain.ErrAggregateNotFound)
	}
	if err != nil {
		return nil, mapError("load group order", err)
	}

	prows, err := q.Query(ctx, `SELECT vendor_id, quantity FROM group_order_participants WHERE group_order_id=$1 ORDER BY position`, id)
	if err != nil {
		return nil, mapError("load participants", err)
	}
	defer prows.Close()
	for prows.Next() {
		var p domain.Participant
		if err := prows.Scan(&p.VendorID, &p.Quantity); err != nil {
			return nil, mapError("scan participant", err)
		}
		o.Participants = append(o.Participants, p)
	}
	if err := prows.Err(); err != nil {
		return nil, mapError("load participants", err)
	}
	return o, nil
}

// upsertParticipants writes the full ledger. Entries are never removed, so
// an upsert keyed by (group_order_id, vendor_id) is sufficient.
func (r *Repository) upsertParticipants(ctx context.Context, tx pgx.Tx, o *domain.GroupOrder) error {
	batch := &pgx.Batch{}
	for i, p := range o.Participants {
		batch.Queue(`INSERT INTO group_order_participants (group_order_id, vendor_id, quantity, position)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (group_order_id, vendor_id) DO UPDATE SET quantity=EXCLUDED.quantity`,
			o.ID, p.VendorID, p.Quantity, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapError("upsert participants", err)
	}
	return nil
}

func (r *Repository) appendOutbox(ctx context.Context, tx pgx.Tx, o *domain.GroupOrder) error {
	events := o.PendingEvents()
	if len(events) == 0 {
		return nil
	}
	headers := map[string]string{"source": r.source}
	traceparent := tracing.Traceparent(ctx)

	batch := &pgx.Batch{}
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", ev.Type, err)
		}
		batch.Queue(`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
			aggregateType, o.ID, string(ev.Type), payload, headers, traceparent)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapError("insert outbox", err)
	}
	return nil
}
