package service

// CustomerNotifier 面向客户的通知出口
// 实现必须保证失败不抛错，只返回是否成功
type CustomerNotifier interface {
	SendReturnLabelEmail(to, customerName, awb string, label []byte) bool
	SendRejectionEmail(to, customerName, requestType, reason string) bool
}

// FailureAlerter 派送失败告警出口
type FailureAlerter interface {
	SendDeliveryFailureAlert(awb, orderNumber string, attempts int)
}
