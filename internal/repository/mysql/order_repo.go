package mysql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

func (r *OrderRepository) Create(order *model.Order) error {
	util.Logger.Info("开始创建订单",
		zap.String("customer_name", order.CustomerName),
		zap.Float64("amount", order.Amount),
		zap.String("payment_mode", order.PaymentMode))

	if order.CustomerName == "" || order.Amount <= 0 {
		util.Logger.Error("订单参数验证失败",
			zap.String("customer_name", order.CustomerName),
			zap.Float64("amount", order.Amount))
		return fmt.Errorf("invalid order parameters")
	}

	if order.Status == "" {
		order.Status = "Pending"
	}

	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (order_number, customer_name, customer_type, email, phone, products,
				  amount, payment_mode, status, awb_number, address, city, state, pincode,
				  height_cm, breadth_cm, length_cm, weight_kg, created_at, updated_at)
			  VALUES ('TEMP', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := tx.Exec(query,
		order.CustomerName, order.CustomerType, order.Email, order.Phone, order.Products,
		order.Amount, order.PaymentMode, order.Status, order.AWBNumber,
		order.Address, order.City, order.State, order.Pincode,
		order.HeightCM, order.BreadthCM, order.LengthCM, order.WeightKG)
	if err != nil {
		util.Logger.Error("插入订单记录失败", zap.Error(err))
		return fmt.Errorf("failed to insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取订单ID失败", zap.Error(err))
		return fmt.Errorf("failed to get order ID: %w", err)
	}
	order.ID = int(id)

	orderNumber := generateOrderNumber(order.ID)
	if _, err = tx.Exec("UPDATE orders SET order_number = ? WHERE id = ?", orderNumber, order.ID); err != nil {
		util.Logger.Error("更新订单编号失败",
			zap.Error(err),
			zap.String("order_number", orderNumber),
			zap.Int("order_id", order.ID))
		return fmt.Errorf("failed to update order number: %w", err)
	}
	order.OrderNumber = orderNumber

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	util.Logger.Info("订单创建成功",
		zap.Int("order_id", order.ID),
		zap.String("order_number", order.OrderNumber))
	return nil
}

// generateOrderNumber 生成订单编号
// 格式: ORD-年份-4位序号，例如: ORD-2026-0001
func generateOrderNumber(orderID int) string {
	year := time.Now().Year()
	return fmt.Sprintf("ORD-%d-%04d", year, orderID)
}

const orderColumns = `id, order_number, customer_name, customer_type, email, phone, products,
	   amount, payment_mode, status, awb_number, address, city, state, pincode,
	   height_cm, breadth_cm, length_cm, weight_kg, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*model.Order, error) {
	var order model.Order
	var awb sql.NullString
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerType,
		&order.Email, &order.Phone, &order.Products,
		&order.Amount, &order.PaymentMode, &order.Status, &awb,
		&order.Address, &order.City, &order.State, &order.Pincode,
		&order.HeightCM, &order.BreadthCM, &order.LengthCM, &order.WeightKG,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	order.AWBNumber = awb.String
	return &order, nil
}

func (r *OrderRepository) GetByID(id int) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	order, err := scanOrder(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询订单失败", zap.Error(err), zap.Int("order_id", id))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) GetByOrderNumber(orderNumber string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = ?`
	order, err := scanOrder(r.db.QueryRow(query, orderNumber))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询订单失败", zap.Error(err), zap.String("order_number", orderNumber))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) List(page, pageSize int) ([]*model.Order, int, error) {
	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		util.Logger.Error("查询订单列表失败", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}

func (r *OrderRepository) UpdateStatus(orderID int, status string) error {
	query := `UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.Exec(query, status, orderID)
	if err != nil {
		util.Logger.Error("更新订单状态失败",
			zap.Error(err),
			zap.Int("order_id", orderID),
			zap.String("status", status))
	}
	return err
}

func (r *OrderRepository) UpdateAWB(orderID int, awb string) error {
	query := `UPDATE orders SET awb_number = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.Exec(query, awb, orderID)
	if err != nil {
		util.Logger.Error("更新订单运单号失败",
			zap.Error(err),
			zap.Int("order_id", orderID),
			zap.String("awb", awb))
	}
	return err
}

func (r *OrderRepository) UpdateStatusTx(tx *sql.Tx, orderID int, status string) error {
	_, err := tx.Exec(`UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`, status, orderID)
	return err
}

func (r *OrderRepository) UpdateAWBTx(tx *sql.Tx, orderID int, awb string) error {
	_, err := tx.Exec(`UPDATE orders SET awb_number = ?, updated_at = NOW() WHERE id = ?`, awb, orderID)
	return err
}
