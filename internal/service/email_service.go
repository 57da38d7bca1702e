package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/logeshtheni/sevenxt/config"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// EmailService 邮件通知服务
// 发送失败只记日志不返回错误，通知永远不能阻断业务状态流转
type EmailService struct {
	smtpHost   string
	smtpPort   int
	username   string
	password   string
	alertEmail string
}

func NewEmailService() *EmailService {
	return &EmailService{
		smtpHost:   config.AppConfig.SMTPHost,
		smtpPort:   config.AppConfig.SMTPPort,
		username:   config.AppConfig.SMTPUsername,
		password:   config.AppConfig.SMTPPassword,
		alertEmail: config.AppConfig.AlertEmail,
	}
}

// Send 发送邮件，返回是否成功
func (s *EmailService) Send(to, subject, body string) bool {
	return s.send(to, subject, body, "", nil)
}

// SendWithAttachment 发送带附件的邮件
func (s *EmailService) SendWithAttachment(to, subject, body, filename string, attachment []byte) bool {
	return s.send(to, subject, body, filename, attachment)
}

// SendAsync 异步发送，不关心结果
func (s *EmailService) SendAsync(to, subject, body string) {
	go func() {
		if !s.send(to, subject, body, "", nil) {
			util.Logger.Error("异步发送邮件失败", zap.String("to", to))
		}
	}()
}

func (s *EmailService) send(to, subject, body, filename string, attachment []byte) bool {
	util.Logger.Info("开始发送邮件",
		zap.String("to", to),
		zap.String("subject", subject))

	m := mail.NewMessage()
	m.SetHeader("From", s.username)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if len(attachment) > 0 {
		m.AttachReader(filename, bytes.NewReader(attachment))
	}

	d := mail.NewDialer(s.smtpHost, s.smtpPort, s.username, s.password)
	d.Timeout = 20 * time.Second
	d.SSL = true
	d.TLSConfig = &tls.Config{InsecureSkipVerify: true}

	if err := d.DialAndSend(m); err != nil {
		util.Logger.Error("发送邮件失败", zap.Error(err), zap.String("to", to))
		return false
	}

	util.Logger.Info("邮件发送成功", zap.String("to", to))
	return true
}

// SendReturnLabelEmail 向客户发送退货面单
func (s *EmailService) SendReturnLabelEmail(to, customerName, awb string, label []byte) bool {
	subject := "您的退货申请已批准 - Sevenxt"
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #333;">
		<h2>退货申请已批准</h2>
		<p>亲爱的 %s，</p>
		<p>您的退货申请已通过审核。退货运单号为 <b>%s</b>。</p>
		<p>请打印附件中的退货面单并贴在包裹上，快递员将上门取件。</p>
		<p>此邮件由系统自动发送，请勿直接回复。</p>
	</body>
	</html>`, customerName, awb)

	if len(label) > 0 {
		return s.SendWithAttachment(to, subject, body, fmt.Sprintf("return_label_%s.pdf", awb), label)
	}
	return s.Send(to, subject, body)
}

// SendRejectionEmail 向客户发送申请被拒绝的通知
func (s *EmailService) SendRejectionEmail(to, customerName, requestType, reason string) bool {
	subject := fmt.Sprintf("您的%s申请未通过审核 - Sevenxt", requestType)
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #333;">
		<h2>%s申请未通过审核</h2>
		<p>亲爱的 %s，</p>
		<p>很抱歉，您的%s申请未能通过审核。</p>
		<p>原因：%s</p>
		<p>如有疑问请联系客服。</p>
	</body>
	</html>`, requestType, customerName, requestType, reason)

	return s.Send(to, subject, body)
}

// SendDeliveryFailureAlert 向管理员发送多次派送失败告警
func (s *EmailService) SendDeliveryFailureAlert(awb, orderNumber string, attempts int) {
	if s.alertEmail == "" {
		util.Logger.Warn("未配置告警邮箱，跳过派送失败告警", zap.String("awb", awb))
		return
	}

	subject := fmt.Sprintf("[告警] 运单 %s 派送失败已达 %d 次", awb, attempts)
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #333;">
		<h2 style="color: #c0392b;">派送失败告警</h2>
		<p>运单号：<b>%s</b></p>
		<p>订单编号：%s</p>
		<p>派送失败次数：<b>%d</b></p>
		<p>请尽快人工介入处理。</p>
	</body>
	</html>`, awb, orderNumber, attempts)

	s.SendAsync(s.alertEmail, subject, body)
}
