package service

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/logeshtheni/sevenxt/internal/carrier"
	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/util"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	os.Exit(m.Run())
}

// MockOrderRepository 是 OrderRepository 接口的模拟实现
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(order *model.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id int) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByOrderNumber(orderNumber string) (*model.Order, error) {
	args := m.Called(orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(page, pageSize int) ([]*model.Order, int, error) {
	args := m.Called(page, pageSize)
	return args.Get(0).([]*model.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(orderID int, status string) error {
	args := m.Called(orderID, status)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateAWB(orderID int, awb string) error {
	args := m.Called(orderID, awb)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatusTx(tx *sql.Tx, orderID int, status string) error {
	args := m.Called(tx, orderID, status)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateAWBTx(tx *sql.Tx, orderID int, awb string) error {
	args := m.Called(tx, orderID, awb)
	return args.Error(0)
}

// MockShipmentRepository 是 ShipmentRepository 接口的模拟实现
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) Create(leg *model.ShipmentLeg) error {
	args := m.Called(leg)
	return args.Error(0)
}

func (m *MockShipmentRepository) GetByID(id int) (*model.ShipmentLeg, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShipmentLeg), args.Error(1)
}

func (m *MockShipmentRepository) GetByAWB(awb string) ([]*model.ShipmentLeg, error) {
	args := m.Called(awb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ShipmentLeg), args.Error(1)
}

func (m *MockShipmentRepository) GetActiveLeg(kind model.LegKind, parentID int) (*model.ShipmentLeg, error) {
	args := m.Called(kind, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShipmentLeg), args.Error(1)
}

func (m *MockShipmentRepository) ListByKind(kind model.LegKind) ([]*model.ShipmentLeg, error) {
	args := m.Called(kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ShipmentLeg), args.Error(1)
}

func (m *MockShipmentRepository) UpdateLabelPath(id int, path string) error {
	args := m.Called(id, path)
	return args.Error(0)
}

func (m *MockShipmentRepository) UpdateSchedulePickup(id int, schedule sql.NullTime) error {
	args := m.Called(id, schedule)
	return args.Error(0)
}

func (m *MockShipmentRepository) UpdateStatus(id int, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockShipmentRepository) GetByAWBForUpdate(tx *sql.Tx, awb string) ([]*model.ShipmentLeg, error) {
	args := m.Called(tx, awb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ShipmentLeg), args.Error(1)
}

func (m *MockShipmentRepository) UpdateStatusTx(tx *sql.Tx, id int, status string) error {
	args := m.Called(tx, id, status)
	return args.Error(0)
}

func (m *MockShipmentRepository) IncrementAttemptsTx(tx *sql.Tx, id int) (int, error) {
	args := m.Called(tx, id)
	return args.Int(0), args.Error(1)
}

// MockExchangeRepository 是 ExchangeRepository 接口的模拟实现
type MockExchangeRepository struct {
	mock.Mock
}

func (m *MockExchangeRepository) Create(exchange *model.Exchange) error {
	args := m.Called(exchange)
	return args.Error(0)
}

func (m *MockExchangeRepository) GetByID(id int) (*model.Exchange, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Exchange), args.Error(1)
}

func (m *MockExchangeRepository) GetActiveByOrderID(orderID int) (*model.Exchange, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Exchange), args.Error(1)
}

func (m *MockExchangeRepository) List(page, pageSize int) ([]*model.Exchange, int, error) {
	args := m.Called(page, pageSize)
	return args.Get(0).([]*model.Exchange), args.Int(1), args.Error(2)
}

func (m *MockExchangeRepository) Update(exchange *model.Exchange) error {
	args := m.Called(exchange)
	return args.Error(0)
}

func (m *MockExchangeRepository) GetByIDTx(tx *sql.Tx, id int) (*model.Exchange, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Exchange), args.Error(1)
}

func (m *MockExchangeRepository) UpdateStatusTx(tx *sql.Tx, id int, status string) error {
	args := m.Called(tx, id, status)
	return args.Error(0)
}

func (m *MockExchangeRepository) SetCompletedTx(tx *sql.Tx, id int) error {
	args := m.Called(tx, id)
	return args.Error(0)
}

// MockRefundRepository 是 RefundRepository 接口的模拟实现
type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) Create(refund *model.Refund) error {
	args := m.Called(refund)
	return args.Error(0)
}

func (m *MockRefundRepository) GetByID(id int) (*model.Refund, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Refund), args.Error(1)
}

func (m *MockRefundRepository) GetActiveByOrderID(orderID int) (*model.Refund, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Refund), args.Error(1)
}

func (m *MockRefundRepository) List(page, pageSize int) ([]*model.Refund, int, error) {
	args := m.Called(page, pageSize)
	return args.Get(0).([]*model.Refund), args.Int(1), args.Error(2)
}

func (m *MockRefundRepository) Update(refund *model.Refund) error {
	args := m.Called(refund)
	return args.Error(0)
}

func (m *MockRefundRepository) GetByIDTx(tx *sql.Tx, id int) (*model.Refund, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Refund), args.Error(1)
}

func (m *MockRefundRepository) UpdateStatusTx(tx *sql.Tx, id int, status string) error {
	args := m.Called(tx, id, status)
	return args.Error(0)
}

func (m *MockRefundRepository) SetCompletedTx(tx *sql.Tx, id int) error {
	args := m.Called(tx, id)
	return args.Error(0)
}

// MockCarrierGateway 是快递网关的模拟实现
type MockCarrierGateway struct {
	mock.Mock
}

func (m *MockCarrierGateway) CreateShipment(ctx context.Context, req carrier.ShipmentRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockCarrierGateway) FetchLabel(ctx context.Context, awb string) ([]byte, error) {
	args := m.Called(ctx, awb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCarrierGateway) RequestPickup(ctx context.Context, req carrier.PickupRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockStorage 是存储后端的模拟实现
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(path string, data []byte, contentType string) (string, error) {
	args := m.Called(path, data, contentType)
	return args.String(0), args.Error(1)
}

// MockNotifier 同时模拟客户通知和告警出口
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendReturnLabelEmail(to, customerName, awb string, label []byte) bool {
	args := m.Called(to, customerName, awb, label)
	return args.Bool(0)
}

func (m *MockNotifier) SendRejectionEmail(to, customerName, requestType, reason string) bool {
	args := m.Called(to, customerName, requestType, reason)
	return args.Bool(0)
}

func (m *MockNotifier) SendDeliveryFailureAlert(awb, orderNumber string, attempts int) {
	m.Called(awb, orderNumber, attempts)
}
