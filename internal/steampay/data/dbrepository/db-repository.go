package dbrepository

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type DBStorage interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) (pgx.Row, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryValue(ctx context.Context, query string, args []any, dest []any) error
}

type DBRepository struct {
	storage DBStorage
	logger  *logging.ZapLogger
}

func New(storage DBStorage, logger *logging.ZapLogger) *DBRepository {
	return &DBRepository{
		storage: storage,
		logger:  logger,
	}
}

//go:embed sql/insert_order.sql
var insertOrderQuery string

// InsertOrderIfAbsent is the idempotency primitive: a row with the same id is
// a no-op, not an error. A duplicate external_id still surfaces as
// data.ErrUniqueConstraintViolation so callers can treat the event as already
// processed.
func (db *DBRepository) InsertOrderIfAbsent(ctx context.Context, order *data.Order) (inserted bool, err error) {
	tag, err := db.storage.Exec(
		ctx,
		insertOrderQuery,
		order.ID,
		order.ExternalID,
		order.Login,
		order.ServiceID,
		order.Amount,
		string(order.Status),
		order.CreatedAt,
	)
	if err != nil {
		return false, handleSQLError(err)
	}
	return tag.RowsAffected() > 0, nil
}

//go:embed sql/update_order_status.sql
var updateOrderStatusQuery string

// SetOrderStatus refuses to move a paid row; status only travels forward.
func (db *DBRepository) SetOrderStatus(ctx context.Context, id string, status data.Status) error {
	tag, err := db.storage.Exec(ctx, updateOrderStatusQuery, id, string(status))
	if err != nil {
		return handleSQLError(err)
	}
	if tag.RowsAffected() == 0 {
		db.logger.DebugCtx(ctx, "order status left unchanged",
			zap.String("id", id),
			zap.String("status", string(status)),
		)
	}
	return nil
}

//go:embed sql/select_order_by_external_id.sql
var selectOrderByExternalIDQuery string

func (db *DBRepository) GetOrderByExternalID(ctx context.Context, externalID string) (*data.Order, error) {
	return db.getOrder(ctx, selectOrderByExternalIDQuery, externalID)
}

//go:embed sql/select_order_by_id.sql
var selectOrderByIDQuery string

func (db *DBRepository) GetOrderByID(ctx context.Context, id string) (*data.Order, error) {
	return db.getOrder(ctx, selectOrderByIDQuery, id)
}

func (db *DBRepository) getOrder(ctx context.Context, query string, arg any) (*data.Order, error) {
	order := &data.Order{}
	var status string
	err := db.storage.QueryValue(
		ctx,
		query,
		[]any{arg},
		[]any{
			&order.ID,
			&order.ExternalID,
			&order.Login,
			&order.ServiceID,
			&order.Amount,
			&status,
			&order.CreatedAt,
		},
	)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, data.ErrOrderNotFound
		default:
			return nil, handleSQLError(err)
		}
	}
	order.Status = data.Status(status)
	return order, nil
}

//go:embed sql/select_orders.sql
var selectOrdersQuery string

func (db *DBRepository) GetOrders(ctx context.Context, offset, limit int) ([]data.Order, error) {
	rows, err := db.storage.Query(ctx, selectOrdersQuery, offset, limit)
	if err != nil {
		return nil, handleSQLError(err)
	}
	defer rows.Close()

	result := make([]data.Order, 0)
	for rows.Next() {
		var order data.Order
		var status string
		err := rows.Scan(
			&order.ID,
			&order.ExternalID,
			&order.Login,
			&order.ServiceID,
			&order.Amount,
			&status,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, handleSQLError(err)
		}
		order.Status = data.Status(status)
		result = append(result, order)
	}
	if err = rows.Err(); err != nil {
		return nil, handleSQLError(err)
	}
	return result, nil
}

func (db *DBRepository) Ping(ctx context.Context) error {
	var one int
	return db.storage.QueryValue(ctx, "SELECT 1", nil, []any{&one})
}

func handleSQLError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return data.ErrUniqueConstraintViolation
		}
	}
	return err
}
