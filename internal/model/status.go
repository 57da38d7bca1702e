package model

import "strings"

// DeliveryStatus 物流状态（内部统一词汇表）
type DeliveryStatus string

const (
	StatusAWBGenerated    DeliveryStatus = "AWB_GENERATED"
	StatusPickupRequested DeliveryStatus = "PICKUP_REQUESTED"
	StatusPickedUp        DeliveryStatus = "PICKED_UP"
	StatusInTransit       DeliveryStatus = "IN_TRANSIT"
	StatusOutForDelivery  DeliveryStatus = "OUT_FOR_DELIVERY"
	StatusDelivered       DeliveryStatus = "DELIVERED"

	// 主链外的分支状态
	StatusRTO       DeliveryStatus = "RTO"
	StatusFailed    DeliveryStatus = "FAILED"
	StatusException DeliveryStatus = "EXCEPTION"
)

// ExceptionPrefix 异常状态在运单上的存储前缀，保留快递商原始状态串
const ExceptionPrefix = "EXCEPTION: "

// statusRank 主链状态的顺序表，状态只能沿主链前进
var statusRank = map[DeliveryStatus]int{
	StatusAWBGenerated:    0,
	StatusPickupRequested: 1,
	StatusPickedUp:        2,
	StatusInTransit:       3,
	StatusOutForDelivery:  4,
	StatusDelivered:       5,
}

// Rank 返回主链状态的序号，非主链状态返回 -1
func (s DeliveryStatus) Rank() int {
	if rank, ok := statusRank[s]; ok {
		return rank
	}
	return -1
}

// IsMainLine 判断是否为主链状态
func (s DeliveryStatus) IsMainLine() bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal 判断运单是否已到达终态
func (s DeliveryStatus) IsTerminal() bool {
	return s == StatusDelivered
}

// IsFailure 判断是否为派送失败（计入失败次数）
func (s DeliveryStatus) IsFailure() bool {
	return s == StatusFailed
}

// carrierStatusMap 快递商状态词到内部状态的映射表
// 查表前先做大写、空白折叠处理
var carrierStatusMap = map[string]DeliveryStatus{
	"PICKED UP":  StatusPickedUp,
	"PICKUP":     StatusPickedUp,
	"MANIFESTED": StatusPickedUp,

	"IN TRANSIT": StatusInTransit,
	"DISPATCHED": StatusInTransit,

	"OUT FOR DELIVERY": StatusOutForDelivery,

	"DELIVERED": StatusDelivered,
	"DLVD":      StatusDelivered,

	"RTO INITIATED":    StatusRTO,
	"RTO":              StatusRTO,
	"RETURN TO SENDER": StatusRTO,
	"RETURNTOSENDER":   StatusRTO,

	"DELIVERY FAILED": StatusFailed,
	"ATTEMPT FAIL":    StatusFailed,
	"FAILED ATTEMPT":  StatusFailed,
	"UNDELIVERED":     StatusFailed,
	"NOT DELIVERED":   StatusFailed,

	"EXCEPTION": StatusException,
	"LOST":      StatusException,
	"DAMAGED":   StatusException,
	"CANCELLED": StatusException,
}

// NormalizeCarrierStatus 将快递商回调里的状态词归一化为内部状态
// 未识别的状态词返回 false，调用方应当丢弃该事件
func NormalizeCarrierStatus(raw string) (DeliveryStatus, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", " ")
	key = strings.ReplaceAll(key, "_", " ")
	key = strings.Join(strings.Fields(key), " ")

	status, ok := carrierStatusMap[key]
	return status, ok
}

// IsExceptionStatus 判断运单存储状态是否带异常标记
func IsExceptionStatus(stored string) bool {
	return stored == string(StatusRTO) || strings.HasPrefix(stored, ExceptionPrefix)
}
