package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 署名が合わないpayloadは一切信用しない
var ErrInvalidSignature = errors.New("invalid webhook signature")

// DefaultToleranceはタイムスタンプの許容ずれ。リプレイ対策。
const DefaultTolerance = 5 * time.Minute

// Eventは決済プロバイダのwebhookペイロード。
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ConstructEventは署名ヘッダを検証してからEventへデコードする。
// ヘッダ形式は "t=<unix>,v1=<hex hmac>"。署名対象は "<t>.<payload>"。
func ConstructEvent(payload []byte, sigHeader string, secret string) (Event, error) {
	return constructEventAt(payload, sigHeader, secret, time.Now())
}

func constructEventAt(payload []byte, sigHeader string, secret string, now time.Time) (Event, error) {
	var event Event

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return event, err
	}

	//古すぎるタイムスタンプは拒否
	if now.Sub(time.Unix(timestamp, 0)) > DefaultTolerance {
		return event, ErrInvalidSignature
	}

	expected := computeSignature(timestamp, payload, secret)

	valid := false
	for _, sig := range signatures {
		sigBytes, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(sigBytes, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return event, ErrInvalidSignature
	}

	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return event, nil
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, ErrInvalidSignature
	}

	var timestamp int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

func computeSignature(timestamp int64, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayloadはテスト用に正しい署名ヘッダを組み立てる。
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	sig := computeSignature(ts, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(sig))
}
