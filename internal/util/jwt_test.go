package util

import (
	"testing"

	"github.com/logeshtheni/sevenxt/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenRoundTrip 生成的令牌必须能解析回用户ID和角色
func TestTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateToken(42, "admin")
	require.NoError(t, err)

	userID, role, err := ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, 42, userID)
	assert.Equal(t, "admin", role)
}

// TestValidateToken_Invalid 非法令牌必须报错
func TestValidateToken_Invalid(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	_, _, err := ValidateToken("")
	assert.Error(t, err)

	_, _, err = ValidateToken("not.a.token")
	assert.Error(t, err)
}

// TestGenerateUniqueFilename 文件名保留扩展名且彼此不同
func TestGenerateUniqueFilename(t *testing.T) {
	a := GenerateUniqueFilename("proof.jpg")
	b := GenerateUniqueFilename("proof.jpg")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "proof_")
	assert.Contains(t, a, ".jpg")
}
