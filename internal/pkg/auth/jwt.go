package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID string `json:"user_id"`
	jwt.StandardClaims
}

// TokenIssuer подписывает HS256 токены текущим ключом и проверяет токены,
// подписанные текущим или выведенным ключом. Ключ выбирается по заголовку kid.
type TokenIssuer struct {
	keyID   string
	keys    map[string][]byte
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewTokenIssuer(keyID string, secret []byte, retired map[string][]byte, ttl time.Duration) *TokenIssuer {
	keys := make(map[string][]byte, len(retired)+1)
	for kid, key := range retired {
		keys[kid] = key
	}
	keys[keyID] = secret

	return &TokenIssuer{
		keyID:   keyID,
		keys:    keys,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

func (t *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	now := t.nowFunc()
	expiresAt := now.Add(t.ttl)

	claims := &Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = t.keyID

	signed, err := token.SignedString(t.keys[t.keyID])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify возвращает id пользователя из токена. Любой сбой даёт ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenStr string) (string, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}

		kid, _ := token.Header["kid"].(string)
		key, ok := t.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !tkn.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
