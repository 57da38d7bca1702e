package mysql

import (
	"database/sql"
	"fmt"

	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

type RefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{db}
}

const refundColumns = `id, order_id, reason, description, proof_image_path, amount,
	   status, admin_notes, rejection_reason, return_awb,
	   approved_at, completed_at, created_at, updated_at`

func scanRefund(row interface{ Scan(...interface{}) error }) (*model.Refund, error) {
	var rf model.Refund
	var description, proofImage, adminNotes, rejectionReason, returnAWB sql.NullString
	var approvedAt, completedAt sql.NullTime

	err := row.Scan(
		&rf.ID, &rf.OrderID, &rf.Reason, &description, &proofImage, &rf.Amount,
		&rf.Status, &adminNotes, &rejectionReason, &returnAWB,
		&approvedAt, &completedAt, &rf.CreatedAt, &rf.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rf.Description = description.String
	rf.ProofImagePath = proofImage.String
	rf.AdminNotes = adminNotes.String
	rf.RejectionReason = rejectionReason.String
	rf.ReturnAWB = returnAWB.String
	if approvedAt.Valid {
		rf.ApprovedAt = &approvedAt.Time
	}
	if completedAt.Valid {
		rf.CompletedAt = &completedAt.Time
	}
	return &rf, nil
}

func (r *RefundRepository) Create(refund *model.Refund) error {
	util.Logger.Info("开始创建退款单",
		zap.Int("order_id", refund.OrderID),
		zap.String("reason", refund.Reason),
		zap.Float64("amount", refund.Amount))

	if refund.Status == "" {
		refund.Status = model.RefundStatusPending
	}

	query := `INSERT INTO refunds (order_id, reason, description, proof_image_path, amount,
				  status, admin_notes, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := r.db.Exec(query,
		refund.OrderID, refund.Reason, refund.Description, refund.ProofImagePath,
		refund.Amount, refund.Status, refund.AdminNotes)
	if err != nil {
		util.Logger.Error("创建退款单失败", zap.Error(err), zap.Int("order_id", refund.OrderID))
		return fmt.Errorf("failed to insert refund: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get refund ID: %w", err)
	}
	refund.ID = int(id)

	util.Logger.Info("退款单创建成功", zap.Int("refund_id", refund.ID))
	return nil
}

func (r *RefundRepository) GetByID(id int) (*model.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = ?`
	rf, err := scanRefund(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询退款单失败", zap.Error(err), zap.Int("refund_id", id))
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	return rf, nil
}

// GetActiveByOrderID 查询订单下未走完流程的退款单
func (r *RefundRepository) GetActiveByOrderID(orderID int) (*model.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds
			  WHERE order_id = ? AND status NOT IN (?, ?)
			  ORDER BY created_at DESC LIMIT 1`
	rf, err := scanRefund(r.db.QueryRow(query, orderID,
		model.RefundStatusCompleted, model.RefundStatusRejected))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active refund: %w", err)
	}
	return rf, nil
}

func (r *RefundRepository) List(page, pageSize int) ([]*model.Refund, int, error) {
	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM refunds").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count refunds: %w", err)
	}

	query := `SELECT ` + refundColumns + ` FROM refunds ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		util.Logger.Error("查询退款单列表失败", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*model.Refund
	for rows.Next() {
		rf, err := scanRefund(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, rf)
	}
	return refunds, total, rows.Err()
}

func (r *RefundRepository) Update(refund *model.Refund) error {
	query := `UPDATE refunds SET status = ?, admin_notes = ?, rejection_reason = ?,
				  return_awb = NULLIF(?, ''), approved_at = ?, completed_at = ?, updated_at = NOW()
			  WHERE id = ?`

	_, err := r.db.Exec(query,
		refund.Status, refund.AdminNotes, refund.RejectionReason,
		refund.ReturnAWB, nullTime(refund.ApprovedAt), nullTime(refund.CompletedAt),
		refund.ID)
	if err != nil {
		util.Logger.Error("更新退款单失败", zap.Error(err), zap.Int("refund_id", refund.ID))
		return fmt.Errorf("failed to update refund: %w", err)
	}
	return nil
}

func (r *RefundRepository) GetByIDTx(tx *sql.Tx, id int) (*model.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = ?`
	rf, err := scanRefund(tx.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	return rf, nil
}

func (r *RefundRepository) UpdateStatusTx(tx *sql.Tx, id int, status string) error {
	_, err := tx.Exec(`UPDATE refunds SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	return err
}

func (r *RefundRepository) SetCompletedTx(tx *sql.Tx, id int) error {
	_, err := tx.Exec(`UPDATE refunds SET status = ?, completed_at = NOW(), updated_at = NOW() WHERE id = ?`,
		model.RefundStatusCompleted, id)
	return err
}
