package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/logeshtheni/sevenxt/internal/carrier"
	"github.com/logeshtheni/sevenxt/internal/common"
	"github.com/logeshtheni/sevenxt/internal/errors"
	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/repository/interfaces"
	"github.com/logeshtheni/sevenxt/internal/storage"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// CarrierGateway 快递网关接口
type CarrierGateway interface {
	CreateShipment(ctx context.Context, req carrier.ShipmentRequest) (string, error)
	FetchLabel(ctx context.Context, awb string) ([]byte, error)
	RequestPickup(ctx context.Context, req carrier.PickupRequest) error
}

const (
	courierPartner  = "Delhivery"
	labelMaxRetries = 3
	labelRetryDelay = 2 * time.Second
)

// ShipmentService 运单服务，封装创建运单、拉取面单、预约取件
type ShipmentService struct {
	shipmentRepo interfaces.ShipmentRepository
	gateway      CarrierGateway
	store        storage.Storage
}

func NewShipmentService(shipmentRepo interfaces.ShipmentRepository, gateway CarrierGateway, store storage.Storage) *ShipmentService {
	return &ShipmentService{
		shipmentRepo: shipmentRepo,
		gateway:      gateway,
		store:        store,
	}
}

// CreateForwardLeg 为订单创建正向运单
func (s *ShipmentService) CreateForwardLeg(ctx context.Context, order *model.Order) (*model.ShipmentLeg, error) {
	req := carrier.ShipmentRequest{
		OrderRef:     order.OrderNumber,
		CustomerName: order.CustomerName,
		Phone:        order.Phone,
		Address:      order.Address,
		City:         order.City,
		State:        order.State,
		Pincode:      order.Pincode,
		PaymentMode:  order.PaymentMode,
		ProductsDesc: order.Products,
		Quantity:     1,
		TotalAmount:  order.Amount,
		HeightCM:     order.HeightCM,
		BreadthCM:    order.BreadthCM,
		LengthCM:     order.LengthCM,
		WeightKG:     order.WeightKG,
	}

	leg, _, err := s.createLeg(ctx, req, model.LegOrderForward, order.ID, "awb")
	return leg, err
}

// CreateReturnLeg 创建逆向取件运单，父实体为换货单或退款单
// 返回面单内容供调用方附在邮件里
func (s *ShipmentService) CreateReturnLeg(ctx context.Context, order *model.Order, kind model.LegKind, parentID int, orderRef string) (*model.ShipmentLeg, []byte, error) {
	req := carrier.ShipmentRequest{
		OrderRef:     orderRef,
		CustomerName: order.CustomerName,
		Phone:        order.Phone,
		Address:      order.Address,
		City:         order.City,
		State:        order.State,
		Pincode:      order.Pincode,
		PaymentMode:  "Prepaid",
		ProductsDesc: order.Products,
		Quantity:     1,
		TotalAmount:  order.Amount,
		HeightCM:     order.HeightCM,
		BreadthCM:    order.BreadthCM,
		LengthCM:     order.LengthCM,
		WeightKG:     order.WeightKG,
		Reverse:      true,
	}

	return s.createLegWithLabel(ctx, req, kind, parentID, "return_awb")
}

// CreateExchangeForwardLeg 为质检通过的换货单创建补发运单
func (s *ShipmentService) CreateExchangeForwardLeg(ctx context.Context, order *model.Order, exchangeID int, orderRef string) (*model.ShipmentLeg, error) {
	req := carrier.ShipmentRequest{
		OrderRef:     orderRef,
		CustomerName: order.CustomerName,
		Phone:        order.Phone,
		Address:      order.Address,
		City:         order.City,
		State:        order.State,
		Pincode:      order.Pincode,
		PaymentMode:  "Prepaid",
		ProductsDesc: order.Products,
		Quantity:     1,
		TotalAmount:  order.Amount,
		HeightCM:     order.HeightCM,
		BreadthCM:    order.BreadthCM,
		LengthCM:     order.LengthCM,
		WeightKG:     order.WeightKG,
	}

	leg, _, err := s.createLeg(ctx, req, model.LegExchangeForward, exchangeID, "awb")
	return leg, err
}

func (s *ShipmentService) createLeg(ctx context.Context, req carrier.ShipmentRequest, kind model.LegKind, parentID int, labelPrefix string) (*model.ShipmentLeg, []byte, error) {
	return s.createLegWithLabel(ctx, req, kind, parentID, labelPrefix)
}

func (s *ShipmentService) createLegWithLabel(ctx context.Context, req carrier.ShipmentRequest, kind model.LegKind, parentID int, labelPrefix string) (*model.ShipmentLeg, []byte, error) {
	awb, err := s.gateway.CreateShipment(ctx, req)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCarrierGateway, "failed to create shipment with carrier", err)
	}

	leg := &model.ShipmentLeg{
		AWB:            awb,
		Kind:           kind,
		ParentID:       parentID,
		Status:         string(model.StatusAWBGenerated),
		CourierPartner: courierPartner,
	}
	if err := s.shipmentRepo.Create(leg); err != nil {
		return nil, nil, err
	}

	// 面单拉取失败不影响运单创建，后续可人工补拉
	label := s.fetchAndStoreLabel(ctx, leg, labelPrefix)
	return leg, label, nil
}

// fetchAndStoreLabel 重试拉取面单并写入存储
// 面单生成有延迟，固定间隔重试几次，全部失败只记日志
func (s *ShipmentService) fetchAndStoreLabel(ctx context.Context, leg *model.ShipmentLeg, prefix string) []byte {
	var label []byte
	err := common.WithFixedRetry(func() error {
		data, ferr := s.gateway.FetchLabel(ctx, leg.AWB)
		if ferr != nil {
			return ferr
		}
		label = data
		return nil
	}, labelMaxRetries, labelRetryDelay)

	if err != nil {
		util.Logger.Warn("拉取面单失败，运单保留无面单状态",
			zap.Error(err),
			zap.String("awb", leg.AWB))
		return nil
	}

	path := fmt.Sprintf("%s/%s.pdf", prefix, leg.AWB)
	stored, err := s.store.Save(path, label, "application/pdf")
	if err != nil {
		util.Logger.Error("保存面单失败", zap.Error(err), zap.String("awb", leg.AWB))
		return label
	}

	if err := s.shipmentRepo.UpdateLabelPath(leg.ID, stored); err != nil {
		return label
	}
	leg.LabelPath = stored
	return label
}

// SchedulePickup 预约上门取件
// 先落库本地排期，再尽力通知快递商；通知失败不回滚本地状态
func (s *ShipmentService) SchedulePickup(ctx context.Context, legID int, pickupAt time.Time) error {
	leg, err := s.shipmentRepo.GetByID(legID)
	if err != nil {
		return err
	}
	if leg == nil {
		return errors.New(errors.ErrShipmentNotFound, fmt.Sprintf("shipment leg %d not found", legID))
	}

	if err := s.shipmentRepo.UpdateSchedulePickup(legID, sql.NullTime{Time: pickupAt, Valid: true}); err != nil {
		return err
	}
	if leg.Status == string(model.StatusAWBGenerated) {
		if err := s.shipmentRepo.UpdateStatus(legID, string(model.StatusPickupRequested)); err != nil {
			return err
		}
	}

	req := carrier.PickupRequest{
		PickupDate:   pickupAt.Format("2006-01-02"),
		PickupTime:   pickupAt.Format("15:04:05"),
		PackageCount: 1,
	}
	if err := s.gateway.RequestPickup(ctx, req); err != nil {
		util.Logger.Warn("通知快递商取件失败，本地排期已保留",
			zap.Error(err),
			zap.Int("leg_id", legID),
			zap.String("awb", leg.AWB))
	}
	return nil
}

// RefetchLabel 人工补拉面单
func (s *ShipmentService) RefetchLabel(ctx context.Context, legID int) (string, error) {
	leg, err := s.shipmentRepo.GetByID(legID)
	if err != nil {
		return "", err
	}
	if leg == nil {
		return "", errors.New(errors.ErrShipmentNotFound, fmt.Sprintf("shipment leg %d not found", legID))
	}

	prefix := "awb"
	if leg.Kind.IsReturn() {
		prefix = "return_awb"
	}
	if label := s.fetchAndStoreLabel(ctx, leg, prefix); label == nil {
		return "", fmt.Errorf("failed to fetch label for awb %s", leg.AWB)
	}
	return leg.LabelPath, nil
}
