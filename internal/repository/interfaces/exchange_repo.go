package interfaces

import (
	"database/sql"

	"github.com/logeshtheni/sevenxt/internal/model"
)

type ExchangeRepository interface {
	Create(exchange *model.Exchange) error
	GetByID(id int) (*model.Exchange, error)
	GetActiveByOrderID(orderID int) (*model.Exchange, error)
	List(page, pageSize int) ([]*model.Exchange, int, error)
	Update(exchange *model.Exchange) error

	GetByIDTx(tx *sql.Tx, id int) (*model.Exchange, error)
	UpdateStatusTx(tx *sql.Tx, id int, status string) error
	SetCompletedTx(tx *sql.Tx, id int) error
}
