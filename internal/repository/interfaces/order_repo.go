package interfaces

import (
	"database/sql"

	"github.com/logeshtheni/sevenxt/internal/model"
)

type OrderRepository interface {
	Create(order *model.Order) error
	GetByID(id int) (*model.Order, error)
	GetByOrderNumber(orderNumber string) (*model.Order, error)
	List(page, pageSize int) ([]*model.Order, int, error)
	UpdateStatus(orderID int, status string) error
	UpdateAWB(orderID int, awb string) error

	// 回调处理在事务内更新订单，与运单更新保持原子
	UpdateStatusTx(tx *sql.Tx, orderID int, status string) error
	UpdateAWBTx(tx *sql.Tx, orderID int, awb string) error
}
