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
	"tripcore/internal/domains/booking/model"
	"tripcore/shared/constant"
	"tripcore/shared/failure"
	"tripcore/shared/logger"
	"tripcore/shared/timezone"
)

const selectColumns = `id, reference, resource_id, date, time_slot, quantity, status,
	payment_status, payment_id, base_amount, tax_amount, service_fee, discount_amount,
	total_amount, currency, voucher_code, guest_name, guest_email, guest_phone,
	cancellation_deadline, expires_at, created_at, modified_at, created_by, modified_by`

type Booking interface {
	Insert(ctx context.Context, booking model.Booking) error
	Get(ctx context.Context, id string) (model.Booking, error)
	GetByReference(ctx context.Context, reference string) (model.Booking, error)
	UpdateStatus(ctx context.Context, id, from, to string) error
	SetPayment(ctx context.Context, id, paymentStatus string, paymentID *string) error
	Delete(ctx context.Context, id string) error
	FindExpiredPending(ctx context.Context, olderThan time.Time) ([]model.Booking, error)
}

type repositoryImpl struct {
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		db:   db,
		otel: otel,
	}
}

func (repo *repositoryImpl) Insert(ctx context.Context, booking model.Booking) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Insert", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (
		:id, :reference, :resource_id, :date, :time_slot, :quantity, :status,
		:payment_status, :payment_id, :base_amount, :tax_amount, :service_fee, :discount_amount,
		:total_amount, :currency, :voucher_code, :guest_name, :guest_email, :guest_phone,
		:cancellation_deadline, :expires_at, :created_at, :modified_at, :created_by, :modified_by)`,
		model.TableName, selectColumns)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	_, err := repo.db.Write.NamedExecContext(ctx, query, booking)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to insert data (%s): %w", model.EntityName, err)
	}

	return nil
}

func (repo *repositoryImpl) Get(ctx context.Context, id string) (model.Booking, error) {
	return repo.getBy(ctx, "Get", "id", id)
}

func (repo *repositoryImpl) GetByReference(ctx context.Context, reference string) (model.Booking, error) {
	return repo.getBy(ctx, "GetByReference", "reference", reference)
}

func (repo *repositoryImpl) getBy(ctx context.Context, op, column, value string) (model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.%s", constant.OtelRepositoryScopeName, model.EntityName, op))
	defer scope.End()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", selectColumns, model.TableName, column)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var booking model.Booking

	err := repo.db.Read.GetContext(ctx, &booking, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, failure.NotFound(model.EntityName) //nolint:wrapcheck
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return model.Booking{}, fmt.Errorf("failed to get data (%s): %w", model.EntityName, err)
	}

	return booking, nil
}

// UpdateStatus moves a booking between states only when it is still in the
// expected one, so two racing transitions resolve to a single winner.
func (repo *repositoryImpl) UpdateStatus(ctx context.Context, id, from, to string) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.UpdateStatus", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()

	query := fmt.Sprintf(`UPDATE %s
		SET status = $3, modified_at = $4, modified_by = $5
		WHERE id = $1 AND status = $2`, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.ExecContext(ctx, query, id, from, to, timezone.Now(), actor(ctx))
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to update status (%s): %w", model.EntityName, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected (%s): %w", model.EntityName, err)
	}

	if affected == 0 {
		return failure.Conflict(fmt.Sprintf("booking is no longer %s", from)) //nolint:wrapcheck
	}

	return nil
}

func (repo *repositoryImpl) SetPayment(ctx context.Context, id, paymentStatus string, paymentID *string) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.SetPayment", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()

	query := fmt.Sprintf(`UPDATE %s
		SET payment_status = $2, payment_id = COALESCE($3, payment_id), modified_at = $4, modified_by = $5
		WHERE id = $1`, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.ExecContext(ctx, query, id, paymentStatus, paymentID, timezone.Now(), actor(ctx))
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to update payment (%s): %w", model.EntityName, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected (%s): %w", model.EntityName, err)
	}

	if affected == 0 {
		return failure.NotFound(model.EntityName) //nolint:wrapcheck
	}

	return nil
}

func (repo *repositoryImpl) Delete(ctx context.Context, id string) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Delete", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	_, err := repo.db.Write.ExecContext(ctx, query, id)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to delete data (%s): %w", model.EntityName, err)
	}

	return nil
}

func (repo *repositoryImpl) FindExpiredPending(ctx context.Context, olderThan time.Time) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.FindExpiredPending", constant.OtelRepositoryScopeName, model.EntityName))
	defer scope.End()

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2
		ORDER BY expires_at ASC`, selectColumns, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	bookings := []model.Booking{}

	err := repo.db.Read.SelectContext(ctx, &bookings, query, model.StatusPending, olderThan)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get expired bookings (%s): %w", model.EntityName, err)
	}

	return bookings, nil
}

func actor(ctx context.Context) string {
	if value, ok := ctx.Value(constant.ContextKeyActor).(string); ok && value != constant.Empty {
		return value
	}

	return constant.ActorSystem
}
