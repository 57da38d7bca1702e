package util

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/logeshtheni/sevenxt/config"
)

func GenerateToken(userID int, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidateToken 校验令牌并返回用户ID和角色
func ValidateToken(tokenString string) (int, string, error) {
	if tokenString == "" {
		return 0, "", errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return 0, "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(float64)
		if !ok {
			return 0, "", errors.New("无效的用户ID")
		}
		role, _ := claims["role"].(string)
		return int(userID), role, nil
	}

	return 0, "", errors.New("无效的令牌")
}

func RefreshToken(tokenString string) (string, error) {
	userID, role, err := ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return GenerateToken(userID, role)
}
