package jwt

import (
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/niasikh/2fork-knife-backend/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// 角色常量
const (
	RoleGuest = "guest"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Claims 外部身份服务签发的访问令牌声明
type Claims struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id,omitempty"` // 员工所属餐厅，admin 可为空
	TokenType    string `json:"token_type"`
	jwtv5.RegisteredClaims
}

// Manager JWT 校验器
// 只负责验签，不签发 Token
type Manager struct {
	secret []byte
	issuer string
}

// NewManager 创建 JWT 校验器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
	}
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(m.issuer))
	}

	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
