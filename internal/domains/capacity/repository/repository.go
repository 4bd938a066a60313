package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripcore/infras/otel"
	"tripcore/infras/postgres"
	"tripcore/internal/domains/capacity/model"
	"tripcore/shared/constant"
	"tripcore/shared/failure"
	"tripcore/shared/logger"
	"tripcore/shared/timezone"
)

const selectColumns = `id, resource_id, date, time_slot, total_capacity, booked_capacity,
	reserved_capacity, base_price, price_multiplier, min_booking, max_booking,
	cutoff_hours, is_active, created_at, modified_at, created_by, modified_by`

// The key predicate treats a NULL time_slot and a nil parameter as the same
// whole-day row.
const keyPredicate = `resource_id = $1 AND date = $2
	AND (($3::text IS NULL AND time_slot IS NULL) OR time_slot = $3)`

type Capacity interface {
	Get(ctx context.Context, key model.Key) (model.Record, error)
	Adjust(ctx context.Context, key model.Key, delta model.AdjustDelta) (model.Record, error)
	ReleaseReserved(ctx context.Context, key model.Key, quantity int) error
	Unbook(ctx context.Context, key model.Key, quantity int) error
	FindRange(ctx context.Context, resourceID string, start, end time.Time) ([]model.Record, error)
}

type repositoryImpl struct {
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Capacity {
	return &repositoryImpl{
		db:   db,
		otel: otel,
	}
}

func (repo *repositoryImpl) Get(ctx context.Context, key model.Key) (model.Record, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Get", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", selectColumns, model.TableName, keyPredicate)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var record model.Record

	err := repo.db.Read.GetContext(ctx, &record, query, key.ResourceID, key.Date, key.TimeSlot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Record{}, failure.NotFound(model.EntityName + " record") //nolint:wrapcheck
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return model.Record{}, fmt.Errorf("failed to get data (%s): %w", model.EntityName, err)
	}

	return record, nil
}

// Adjust applies both deltas in one conditional UPDATE so concurrent callers
// can never interleave a read with a write. The guards reject any adjustment
// that would drive booked, reserved, or the derived availability negative;
// a rejected adjustment mutates nothing.
func (repo *repositoryImpl) Adjust(ctx context.Context, key model.Key, delta model.AdjustDelta) (model.Record, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Adjust", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()

	query := fmt.Sprintf(`UPDATE %s
		SET booked_capacity = booked_capacity + $4,
			reserved_capacity = reserved_capacity + $5,
			modified_at = $6,
			modified_by = $7
		WHERE %s
			AND booked_capacity + $4 >= 0
			AND reserved_capacity + $5 >= 0
			AND total_capacity - (booked_capacity + $4) - (reserved_capacity + $5) >= 0
		RETURNING %s`, model.TableName, keyPredicate, selectColumns)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var record model.Record

	err := repo.db.Write.GetContext(ctx, &record, query,
		key.ResourceID, key.Date, key.TimeSlot,
		delta.Booked, delta.Reserved,
		timezone.Now(), actor(ctx),
	)
	if err == nil {
		return record, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return model.Record{}, fmt.Errorf("failed to adjust data (%s): %w", model.EntityName, err)
	}

	// Zero rows either means the row does not exist or a guard fired;
	// re-read to tell the two apart.
	if _, getErr := repo.Get(ctx, key); getErr != nil {
		return model.Record{}, getErr
	}

	return model.Record{}, failure.InsufficientCapacity("capacity adjustment rejected: insufficient remaining capacity") //nolint:wrapcheck
}

// ReleaseReserved gives reserved units back, floored at zero so a release
// racing a sweep or a natural expiry cannot underflow the counter.
func (repo *repositoryImpl) ReleaseReserved(ctx context.Context, key model.Key, quantity int) error {
	return repo.flooredDecrement(ctx, "ReleaseReserved", model.FieldReservedCapacity, key, quantity)
}

// Unbook gives booked units back after a post-confirmation cancellation,
// floored at zero.
func (repo *repositoryImpl) Unbook(ctx context.Context, key model.Key, quantity int) error {
	return repo.flooredDecrement(ctx, "Unbook", model.FieldBookedCapacity, key, quantity)
}

func (repo *repositoryImpl) flooredDecrement(ctx context.Context, op, column string, key model.Key, quantity int) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.%s", constant.OtelRepositoryScopeName, model.EntityName, op))
	defer scope.End()

	query := fmt.Sprintf(`UPDATE %s
		SET %s = GREATEST(%s - $4, 0),
			modified_at = $5,
			modified_by = $6
		WHERE %s`, model.TableName, column, column, keyPredicate)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.ExecContext(ctx, query,
		key.ResourceID, key.Date, key.TimeSlot,
		quantity, timezone.Now(), actor(ctx),
	)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to adjust data (%s): %w", model.EntityName, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected (%s): %w", model.EntityName, err)
	}

	if affected == 0 {
		return failure.NotFound(model.EntityName + " record") //nolint:wrapcheck
	}

	return nil
}

func (repo *repositoryImpl) FindRange(ctx context.Context, resourceID string, start, end time.Time) ([]model.Record, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.FindRange", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE resource_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, time_slot ASC NULLS FIRST`, selectColumns, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	records := []model.Record{}

	err := repo.db.Read.SelectContext(ctx, &records, query, resourceID, start, end)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get data range (%s): %w", model.EntityName, err)
	}

	return records, nil
}

func actor(ctx context.Context) string {
	if value, ok := ctx.Value(constant.ContextKeyActor).(string); ok && value != constant.Empty {
		return value
	}

	return constant.ActorSystem
}
