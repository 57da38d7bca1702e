package mysql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

type ExchangeRepository struct {
	db *sql.DB
}

func NewExchangeRepository(db *sql.DB) *ExchangeRepository {
	return &ExchangeRepository{db}
}

const exchangeColumns = `id, order_id, reason, description, proof_image_path,
	   product_id, product_name, product_variant, quantity, price,
	   status, admin_notes, quality_notes, quality_approved,
	   return_awb, new_awb, approved_at, quality_checked_at, completed_at,
	   created_at, updated_at`

func scanExchange(row interface{ Scan(...interface{}) error }) (*model.Exchange, error) {
	var ex model.Exchange
	var description, proofImage, variant, adminNotes, qualityNotes sql.NullString
	var qualityApproved sql.NullBool
	var returnAWB, newAWB sql.NullString
	var approvedAt, qualityCheckedAt, completedAt sql.NullTime

	err := row.Scan(
		&ex.ID, &ex.OrderID, &ex.Reason, &description, &proofImage,
		&ex.ProductID, &ex.ProductName, &variant, &ex.Quantity, &ex.Price,
		&ex.Status, &adminNotes, &qualityNotes, &qualityApproved,
		&returnAWB, &newAWB, &approvedAt, &qualityCheckedAt, &completedAt,
		&ex.CreatedAt, &ex.UpdatedAt)
	if err != nil {
		return nil, err
	}

	ex.Description = description.String
	ex.ProofImagePath = proofImage.String
	ex.ProductVariant = variant.String
	ex.AdminNotes = adminNotes.String
	ex.QualityNotes = qualityNotes.String
	if qualityApproved.Valid {
		ex.QualityApproved = &qualityApproved.Bool
	}
	ex.ReturnAWB = returnAWB.String
	ex.NewAWB = newAWB.String
	if approvedAt.Valid {
		ex.ApprovedAt = &approvedAt.Time
	}
	if qualityCheckedAt.Valid {
		ex.QualityCheckedAt = &qualityCheckedAt.Time
	}
	if completedAt.Valid {
		ex.CompletedAt = &completedAt.Time
	}
	return &ex, nil
}

func (r *ExchangeRepository) Create(exchange *model.Exchange) error {
	util.Logger.Info("开始创建换货单",
		zap.Int("order_id", exchange.OrderID),
		zap.String("reason", exchange.Reason),
		zap.String("product_id", exchange.ProductID))

	if exchange.Status == "" {
		exchange.Status = model.ExchangeStatusPending
	}

	query := `INSERT INTO exchanges (order_id, reason, description, proof_image_path,
				  product_id, product_name, product_variant, quantity, price,
				  status, admin_notes, quality_notes, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := r.db.Exec(query,
		exchange.OrderID, exchange.Reason, exchange.Description, exchange.ProofImagePath,
		exchange.ProductID, exchange.ProductName, exchange.ProductVariant,
		exchange.Quantity, exchange.Price,
		exchange.Status, exchange.AdminNotes, exchange.QualityNotes)
	if err != nil {
		util.Logger.Error("创建换货单失败", zap.Error(err), zap.Int("order_id", exchange.OrderID))
		return fmt.Errorf("failed to insert exchange: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get exchange ID: %w", err)
	}
	exchange.ID = int(id)

	util.Logger.Info("换货单创建成功", zap.Int("exchange_id", exchange.ID))
	return nil
}

func (r *ExchangeRepository) GetByID(id int) (*model.Exchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM exchanges WHERE id = ?`
	ex, err := scanExchange(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询换货单失败", zap.Error(err), zap.Int("exchange_id", id))
		return nil, fmt.Errorf("failed to get exchange: %w", err)
	}
	return ex, nil
}

// GetActiveByOrderID 查询订单下未走完流程的换货单
func (r *ExchangeRepository) GetActiveByOrderID(orderID int) (*model.Exchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM exchanges
			  WHERE order_id = ? AND status NOT IN (?, ?, ?)
			  ORDER BY created_at DESC LIMIT 1`
	ex, err := scanExchange(r.db.QueryRow(query, orderID,
		model.ExchangeStatusCompleted, model.ExchangeStatusRefunded, model.ExchangeStatusRejected))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active exchange: %w", err)
	}
	return ex, nil
}

func (r *ExchangeRepository) List(page, pageSize int) ([]*model.Exchange, int, error) {
	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM exchanges").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count exchanges: %w", err)
	}

	query := `SELECT ` + exchangeColumns + ` FROM exchanges ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		util.Logger.Error("查询换货单列表失败", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []*model.Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, total, rows.Err()
}

func (r *ExchangeRepository) Update(exchange *model.Exchange) error {
	query := `UPDATE exchanges SET status = ?, admin_notes = ?, quality_notes = ?,
				  quality_approved = ?, return_awb = NULLIF(?, ''), new_awb = NULLIF(?, ''),
				  approved_at = ?, quality_checked_at = ?, completed_at = ?, updated_at = NOW()
			  WHERE id = ?`

	var qualityApproved sql.NullBool
	if exchange.QualityApproved != nil {
		qualityApproved = sql.NullBool{Bool: *exchange.QualityApproved, Valid: true}
	}

	_, err := r.db.Exec(query,
		exchange.Status, exchange.AdminNotes, exchange.QualityNotes,
		qualityApproved, exchange.ReturnAWB, exchange.NewAWB,
		nullTime(exchange.ApprovedAt), nullTime(exchange.QualityCheckedAt), nullTime(exchange.CompletedAt),
		exchange.ID)
	if err != nil {
		util.Logger.Error("更新换货单失败", zap.Error(err), zap.Int("exchange_id", exchange.ID))
		return fmt.Errorf("failed to update exchange: %w", err)
	}
	return nil
}

func (r *ExchangeRepository) GetByIDTx(tx *sql.Tx, id int) (*model.Exchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM exchanges WHERE id = ?`
	ex, err := scanExchange(tx.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange: %w", err)
	}
	return ex, nil
}

func (r *ExchangeRepository) UpdateStatusTx(tx *sql.Tx, id int, status string) error {
	_, err := tx.Exec(`UPDATE exchanges SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	return err
}

func (r *ExchangeRepository) SetCompletedTx(tx *sql.Tx, id int) error {
	_, err := tx.Exec(`UPDATE exchanges SET status = ?, completed_at = NOW(), updated_at = NOW() WHERE id = ?`,
		model.ExchangeStatusCompleted, id)
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
