package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/logeshtheni/sevenxt/internal/errors"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// 快递商在不同接入方式下使用过的签名头
var signatureHeaders = []string{
	"X-Delhivery-Signature",
	"X-Webhook-Signature",
	"X-Signature",
}

// WebhookAuthMiddleware 回调鉴权
// secret 非空时校验 HMAC-SHA256 签名；否则若配置了 IP 白名单按来源 IP 放行
// 两者都未配置时直接放行（仅限开发环境）
func WebhookAuthMiddleware(secret string, allowedIPs []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedIPs))
	for _, ip := range allowedIPs {
		allowed[ip] = struct{}{}
	}

	return func(c *gin.Context) {
		if secret != "" {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				errors.HandleError(c, errors.New(errors.ErrBadRequest, "无法读取请求体"))
				c.Abort()
				return
			}
			// 读完后重置，后续处理器还要用
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			if !verifySignature(c, secret, body) {
				util.Logger.Warn("回调签名校验失败",
					zap.String("client_ip", c.ClientIP()),
					zap.String("path", c.Request.URL.Path))
				errors.HandleError(c, errors.New(errors.ErrInvalidSignature, "签名无效"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if len(allowed) > 0 {
			if _, ok := allowed[c.ClientIP()]; !ok {
				util.Logger.Warn("回调来源 IP 不在白名单",
					zap.String("client_ip", c.ClientIP()))
				errors.HandleError(c, errors.New(errors.ErrForbidden, "来源不被允许"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		util.Logger.Warn("回调鉴权未配置，请求直接放行")
		c.Next()
	}
}

func verifySignature(c *gin.Context, secret string, body []byte) bool {
	var provided string
	for _, h := range signatureHeaders {
		if v := c.GetHeader(h); v != "" {
			provided = v
			break
		}
	}
	if provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}
