package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/logeshtheni/sevenxt/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newWebhookRouter(secret string, allowedIPs []string) *gin.Engine {
	r := gin.New()
	r.POST("/webhook", WebhookAuthMiddleware(secret, allowedIPs), func(c *gin.Context) {
		// 处理器必须还能读到请求体
		body, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusOK, gin.H{"ok": true, "len": len(body)})
	})
	return r
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// TestWebhookAuth_ValidSignature 正确签名放行且请求体保留
func TestWebhookAuth_ValidSignature(t *testing.T) {
	router := newWebhookRouter("topsecret", nil)
	body := `{"awb":"AWB1","Status":"Delivered"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Delhivery-Signature", sign("topsecret", []byte(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"len":35`)
}

// TestWebhookAuth_AlternateHeader 备用签名头同样有效
func TestWebhookAuth_AlternateHeader(t *testing.T) {
	router := newWebhookRouter("topsecret", nil)
	body := `{"awb":"AWB1"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign("topsecret", []byte(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// TestWebhookAuth_InvalidSignature 错误签名返回 401
func TestWebhookAuth_InvalidSignature(t *testing.T) {
	router := newWebhookRouter("topsecret", nil)
	body := `{"awb":"AWB1"}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Delhivery-Signature", sign("wrongsecret", []byte(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":2004`)
}

// TestWebhookAuth_MissingSignature 缺少签名头返回 401
func TestWebhookAuth_MissingSignature(t *testing.T) {
	router := newWebhookRouter("topsecret", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestWebhookAuth_IPAllowlist 未配置密钥时按来源 IP 放行
func TestWebhookAuth_IPAllowlist(t *testing.T) {
	router := newWebhookRouter("", []string{"10.1.2.3"})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	req.RemoteAddr = "10.1.2.3:51000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	req.RemoteAddr = "10.9.9.9:51000"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestWebhookAuth_NoConfig 密钥和白名单都未配置时放行
func TestWebhookAuth_NoConfig(t *testing.T) {
	router := newWebhookRouter("", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
