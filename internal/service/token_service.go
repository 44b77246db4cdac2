package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"user-mgmt/internal/domain"
)

// TokenService emite y valida tokens de verificacion derivados del estado de
// la cuenta. No se persiste nada: un token es valido solo si la derivacion se
// reproduce contra la fila actual, asi que cualquier cambio de estado
// (activacion, cambio de password) invalida los tokens emitidos antes.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

const defaultTokenTTL = 72 * time.Hour

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue genera un token para el estado actual del usuario.
func (s *TokenService) Issue(user domain.User) string {
	ts := strconv.FormatInt(s.now().Unix(), 36)
	return ts + "-" + s.sign(user, ts)
}

// Validate verifica un token contra el estado ACTUAL del usuario. El caller
// debe releer la fila antes de llamar, nunca usar una copia cacheada.
func (s *TokenService) Validate(user domain.User, token string) bool {
	ts, sig, ok := strings.Cut(token, "-")
	if !ok || ts == "" || sig == "" {
		return false
	}
	issuedUnix, err := strconv.ParseInt(ts, 36, 64)
	if err != nil {
		return false
	}
	issued := time.Unix(issuedUnix, 0).UTC()
	now := s.now()
	if issued.After(now) || now.Sub(issued) > s.ttl {
		return false
	}
	expected := s.sign(user, ts)
	return subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) == 1
}

// sign deriva la firma HMAC sobre la huella de estado de la cuenta. Los
// campos mutables relevantes (hash de password, flags de activacion) forman
// parte de la huella a proposito: su cambio es el mecanismo de un solo uso.
func (s *TokenService) sign(user domain.User, ts string) string {
	fingerprint := fmt.Sprintf("%s|%s|%s|%t|%t|%s",
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.IsEmailVerified,
		ts,
	)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(fingerprint))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// EncodeUID codifica el id de cuenta para incluirlo en links de verificacion.
func EncodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeUID revierte EncodeUID. Un error de decode se trata igual que una
// cuenta inexistente para no filtrar informacion.
func DecodeUID(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
