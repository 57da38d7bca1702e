package interfaces

import (
	"database/sql"

	"github.com/logeshtheni/sevenxt/internal/model"
)

type RefundRepository interface {
	Create(refund *model.Refund) error
	GetByID(id int) (*model.Refund, error)
	GetActiveByOrderID(orderID int) (*model.Refund, error)
	List(page, pageSize int) ([]*model.Refund, int, error)
	Update(refund *model.Refund) error

	GetByIDTx(tx *sql.Tx, id int) (*model.Refund, error)
	UpdateStatusTx(tx *sql.Tx, id int, status string) error
	SetCompletedTx(tx *sql.Tx, id int) error
}
