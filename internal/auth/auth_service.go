package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeEdit 标识允许修改卡片的令牌。
const TokenTypeEdit = "edit"

// ErrTokenCardMismatch 表示令牌有效但不属于请求的卡片。
var ErrTokenCardMismatch = errors.New("token does not grant access to this card")

// TokenService 负责签发与校验卡片编辑令牌。
// 卡片没有账号体系，创建卡片时返回的编辑令牌就是修改它的唯一凭据。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// EditClaims 表示编辑令牌中的业务字段。
type EditClaims struct {
	CardID    uint   `json:"card_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// NewTokenService 使用 HMAC 密钥构造服务实例。
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("edit token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("edit token ttl must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// IssueEditToken 为卡片签发编辑令牌。
func (s *TokenService) IssueEditToken(cardID uint) (string, error) {
	now := s.now()
	claims := EditClaims{
		CardID:    cardID,
		TokenType: TokenTypeEdit,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(cardID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken 解析并验证编辑令牌。
func (s *TokenService) ValidateToken(tokenString string) (*EditClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &EditClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*EditClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TokenType != TokenTypeEdit {
		return nil, fmt.Errorf("unexpected token type %q", claims.TokenType)
	}

	return claims, nil
}

// AuthorizeCard 校验令牌并确认它属于指定卡片。
func (s *TokenService) AuthorizeCard(tokenString string, cardID uint) (*EditClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.CardID != cardID {
		return nil, ErrTokenCardMismatch
	}
	return claims, nil
}

// TTL 暴露令牌有效期。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
