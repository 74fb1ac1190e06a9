package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/highcard/backend/internal/game"
)

// QRService issues scannable join challenges for the open game. The code is
// redeemable once; redeeming it tells the scanner what they would be joining
// (creator and bet), not that they may join — joining itself stays open to
// anyone per the core's contract.
type QRService struct {
	redis   *redis.Client
	timeout time.Duration
}

func NewQRService(redisClient *redis.Client, timeout time.Duration) *QRService {
	return &QRService{
		redis:   redisClient,
		timeout: timeout,
	}
}

func (s *QRService) GenerateJoinCode(ctx context.Context, g *game.Game) (string, string, error) {
	if s.redis == nil {
		return "", "", fmt.Errorf("join codes require redis")
	}

	payload := map[string]any{
		"creator":   g.Creator,
		"bet":       g.BetAmount,
		"startTime": g.StartTime,
		"nonce":     s.generateNonce(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	code := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("joinqr:%s", code)
	if err := s.redis.Set(ctx, key, jsonData, s.timeout).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return code, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *QRService) RedeemJoinCode(ctx context.Context, code string) (map[string]any, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("join codes require redis")
	}

	key := fmt.Sprintf("joinqr:%s", code)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired join code")
	}
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	s.redis.Del(ctx, key)

	return payload, nil
}

func (s *QRService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
