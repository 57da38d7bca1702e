package model

import "time"

// LegKind 运单类型
type LegKind string

const (
	LegOrderForward    LegKind = "ORDER_FORWARD"    // 订单正向发货
	LegExchangeReturn  LegKind = "EXCHANGE_RETURN"  // 换货退回
	LegExchangeForward LegKind = "EXCHANGE_FORWARD" // 换货补发
	LegRefundReturn    LegKind = "REFUND_RETURN"    // 退款退回
)

// IsReturn 判断运单是否为逆向（从客户到仓库）
func (k LegKind) IsReturn() bool {
	return k == LegExchangeReturn || k == LegRefundReturn
}

// ShipmentLeg 运单台账
// 每条运单属于一个父实体：订单、换货单或退款单，由 Kind 决定
// 同一个 (Kind, ParentID) 下最多存在一条进行中的运单
type ShipmentLeg struct {
	ID               int        `json:"id"`
	AWB              string     `json:"awb"`
	Kind             LegKind    `json:"kind"`
	ParentID         int        `json:"parent_id"`
	Status           string     `json:"status"` // 内部状态词，异常时为 "EXCEPTION: <原始状态>"
	CourierPartner   string     `json:"courier_partner"`
	PickupLocation   string     `json:"pickup_location,omitempty"`
	LabelPath        string     `json:"label_path,omitempty"`
	SchedulePickup   *time.Time `json:"schedule_pickup,omitempty"`
	DeliveryAttempts int        `json:"delivery_attempts"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsActive 判断运单是否仍在进行中
func (l *ShipmentLeg) IsActive() bool {
	if IsExceptionStatus(l.Status) {
		return false
	}
	return !DeliveryStatus(l.Status).IsTerminal()
}
