package exchange

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMissingCredentials ключи API не заданы
var ErrMissingCredentials = errors.New("ключи API Upbit не заданы")

// Param пара ключ-значение запроса ордера
type Param struct {
	Key   string
	Value string
}

// Params параметры запроса с сохранением порядка.
// Хэш запроса считается по строке в том же порядке, в котором поля уходят на биржу.
type Params []Param

// Encode кодирует параметры в query-строку
func (p Params) Encode() string {
	parts := make([]string, 0, len(p))
	for _, kv := range p {
		parts = append(parts, url.QueryEscape(kv.Key)+"="+url.QueryEscape(kv.Value))
	}
	return strings.Join(parts, "&")
}

// Map параметры для JSON-тела запроса
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}

// authorization формирует заголовок Bearer с JWT HS256.
// Для запросов с параметрами в токен добавляется SHA512 от query-строки.
func (c *UpbitClient) authorization(query string) (string, error) {
	if c.accessKey == "" || c.secretKey == "" {
		return "", ErrMissingCredentials
	}
	claims := jwt.MapClaims{
		"access_key": c.accessKey,
		"nonce":      uuid.NewString(),
		"timestamp":  time.Now().UnixMilli(),
	}
	if query != "" {
		sum := sha512.Sum512([]byte(query))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secretKey))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи JWT: %w", err)
	}
	return "Bearer " + token, nil
}
