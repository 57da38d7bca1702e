package mysql

import (
	"database/sql"
	"fmt"

	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

type ShipmentRepository struct {
	db *sql.DB
}

func NewShipmentRepository(db *sql.DB) *ShipmentRepository {
	return &ShipmentRepository{db}
}

const legColumns = `id, awb, kind, parent_id, status, courier_partner, pickup_location,
	   label_path, schedule_pickup, delivery_attempts, created_at, updated_at`

func scanLeg(row interface{ Scan(...interface{}) error }) (*model.ShipmentLeg, error) {
	var leg model.ShipmentLeg
	var pickupLocation, labelPath sql.NullString
	var schedulePickup sql.NullTime
	err := row.Scan(
		&leg.ID, &leg.AWB, &leg.Kind, &leg.ParentID, &leg.Status,
		&leg.CourierPartner, &pickupLocation, &labelPath, &schedulePickup,
		&leg.DeliveryAttempts, &leg.CreatedAt, &leg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	leg.PickupLocation = pickupLocation.String
	leg.LabelPath = labelPath.String
	if schedulePickup.Valid {
		leg.SchedulePickup = &schedulePickup.Time
	}
	return &leg, nil
}

func (r *ShipmentRepository) Create(leg *model.ShipmentLeg) error {
	util.Logger.Info("开始创建运单",
		zap.String("awb", leg.AWB),
		zap.String("kind", string(leg.Kind)),
		zap.Int("parent_id", leg.ParentID),
		zap.String("status", leg.Status))

	query := `INSERT INTO shipment_legs (awb, kind, parent_id, status, courier_partner,
				  pickup_location, label_path, schedule_pickup, delivery_attempts, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, NOW(), NOW())`

	result, err := r.db.Exec(query,
		leg.AWB, leg.Kind, leg.ParentID, leg.Status, leg.CourierPartner,
		leg.PickupLocation, leg.LabelPath, leg.SchedulePickup)
	if err != nil {
		util.Logger.Error("创建运单失败", zap.Error(err), zap.String("awb", leg.AWB))
		return fmt.Errorf("failed to insert shipment leg: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get shipment leg ID: %w", err)
	}
	leg.ID = int(id)

	util.Logger.Info("运单创建成功", zap.Int("leg_id", leg.ID), zap.String("awb", leg.AWB))
	return nil
}

func (r *ShipmentRepository) GetByID(id int) (*model.ShipmentLeg, error) {
	query := `SELECT ` + legColumns + ` FROM shipment_legs WHERE id = ?`
	leg, err := scanLeg(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment leg: %w", err)
	}
	return leg, nil
}

func (r *ShipmentRepository) GetByAWB(awb string) ([]*model.ShipmentLeg, error) {
	query := `SELECT ` + legColumns + ` FROM shipment_legs WHERE awb = ?`
	return r.queryLegs(r.db.Query(query, awb))
}

// GetActiveLeg 查询某父实体下仍在进行中的运单
// 已送达或标记异常的运单不算进行中
func (r *ShipmentRepository) GetActiveLeg(kind model.LegKind, parentID int) (*model.ShipmentLeg, error) {
	query := `SELECT ` + legColumns + ` FROM shipment_legs WHERE kind = ? AND parent_id = ?
			  ORDER BY created_at DESC`
	legs, err := r.queryLegs(r.db.Query(query, kind, parentID))
	if err != nil {
		return nil, err
	}
	for _, leg := range legs {
		if leg.IsActive() {
			return leg, nil
		}
	}
	return nil, nil
}

func (r *ShipmentRepository) ListByKind(kind model.LegKind) ([]*model.ShipmentLeg, error) {
	query := `SELECT ` + legColumns + ` FROM shipment_legs WHERE kind = ? ORDER BY created_at DESC`
	return r.queryLegs(r.db.Query(query, kind))
}

func (r *ShipmentRepository) queryLegs(rows *sql.Rows, err error) ([]*model.ShipmentLeg, error) {
	if err != nil {
		util.Logger.Error("查询运单失败", zap.Error(err))
		return nil, fmt.Errorf("failed to query shipment legs: %w", err)
	}
	defer rows.Close()

	var legs []*model.ShipmentLeg
	for rows.Next() {
		leg, err := scanLeg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment leg: %w", err)
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func (r *ShipmentRepository) UpdateLabelPath(id int, path string) error {
	_, err := r.db.Exec(`UPDATE shipment_legs SET label_path = ?, updated_at = NOW() WHERE id = ?`, path, id)
	if err != nil {
		util.Logger.Error("更新面单路径失败", zap.Error(err), zap.Int("leg_id", id))
	}
	return err
}

func (r *ShipmentRepository) UpdateSchedulePickup(id int, schedule sql.NullTime) error {
	_, err := r.db.Exec(`UPDATE shipment_legs SET schedule_pickup = ?, updated_at = NOW() WHERE id = ?`, schedule, id)
	if err != nil {
		util.Logger.Error("更新取件时间失败", zap.Error(err), zap.Int("leg_id", id))
	}
	return err
}

func (r *ShipmentRepository) UpdateStatus(id int, status string) error {
	_, err := r.db.Exec(`UPDATE shipment_legs SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	if err != nil {
		util.Logger.Error("更新运单状态失败", zap.Error(err), zap.Int("leg_id", id), zap.String("status", status))
	}
	return err
}

// GetByAWBForUpdate 按 AWB 加行锁查询运单
// 同一 AWB 的并发回调在这里串行化
func (r *ShipmentRepository) GetByAWBForUpdate(tx *sql.Tx, awb string) ([]*model.ShipmentLeg, error) {
	query := `SELECT ` + legColumns + ` FROM shipment_legs WHERE awb = ? FOR UPDATE`
	rows, err := tx.Query(query, awb)
	if err != nil {
		util.Logger.Error("锁定运单失败", zap.Error(err), zap.String("awb", awb))
		return nil, fmt.Errorf("failed to lock shipment legs: %w", err)
	}
	defer rows.Close()

	var legs []*model.ShipmentLeg
	for rows.Next() {
		leg, err := scanLeg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment leg: %w", err)
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func (r *ShipmentRepository) UpdateStatusTx(tx *sql.Tx, id int, status string) error {
	_, err := tx.Exec(`UPDATE shipment_legs SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	return err
}

func (r *ShipmentRepository) IncrementAttemptsTx(tx *sql.Tx, id int) (int, error) {
	if _, err := tx.Exec(`UPDATE shipment_legs SET delivery_attempts = delivery_attempts + 1, updated_at = NOW() WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to increment delivery attempts: %w", err)
	}
	var attempts int
	if err := tx.QueryRow(`SELECT delivery_attempts FROM shipment_legs WHERE id = ?`, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("failed to read delivery attempts: %w", err)
	}
	return attempts, nil
}
