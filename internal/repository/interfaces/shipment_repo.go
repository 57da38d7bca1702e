package interfaces

import (
	"database/sql"

	"github.com/logeshtheni/sevenxt/internal/model"
)

type ShipmentRepository interface {
	Create(leg *model.ShipmentLeg) error
	GetByID(id int) (*model.ShipmentLeg, error)
	GetByAWB(awb string) ([]*model.ShipmentLeg, error)
	GetActiveLeg(kind model.LegKind, parentID int) (*model.ShipmentLeg, error)
	ListByKind(kind model.LegKind) ([]*model.ShipmentLeg, error)
	UpdateLabelPath(id int, path string) error
	UpdateSchedulePickup(id int, schedule sql.NullTime) error
	UpdateStatus(id int, status string) error

	// 回调处理路径：按 AWB 加行锁后在同一事务内更新
	GetByAWBForUpdate(tx *sql.Tx, awb string) ([]*model.ShipmentLeg, error)
	UpdateStatusTx(tx *sql.Tx, id int, status string) error
	IncrementAttemptsTx(tx *sql.Tx, id int) (int, error)
}
