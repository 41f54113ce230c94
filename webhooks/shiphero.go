package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-shipbridge/core"
)

const (
	HeaderShipHeroHMAC = "X-Shiphero-Hmac-Sha256"

	MessageMissingSignature = "Missing HMAC signature"
	MessageInvalidSignature = "Invalid HMAC signature"
)

// HMACVerifier checks base64(HMAC-SHA256(secret, body)) signatures sent by
// the fulfillment platform. Requests are rejected when no secret is
// configured unless AllowUnsigned is set.
type HMACVerifier struct {
	Settings       core.SettingStore
	FallbackSecret string
	AllowUnsigned  bool
	// LogSignatures includes expected and received signatures in mismatch
	// logs. Must stay off in production.
	LogSignatures bool
	Logger        core.Logger
}

func (v HMACVerifier) Verify(ctx context.Context, req core.InboundRequest) error {
	signature := headerValue(req.Headers, HeaderShipHeroHMAC)
	if signature == "" {
		v.warn("webhook received without hmac signature")
		return signatureError(MessageMissingSignature, core.ErrorSignatureMissing, "signature_missing")
	}

	secret, err := v.secret(ctx)
	if err != nil {
		return err
	}
	if secret == "" {
		if v.AllowUnsigned {
			v.warn("accepting webhook without configured secret", "allow_unsigned_webhooks", true)
			return nil
		}
		v.error("webhook secret is not configured")
		return signatureError(MessageUnauthorized, core.ErrorUnauthorized, "secret_missing")
	}

	expected := Sign(secret, req.Body)
	if !SecureCompare(expected, signature) {
		if v.LogSignatures {
			v.error("webhook hmac verification failed", "expected", expected, "received", signature)
		} else {
			v.error("webhook hmac verification failed")
		}
		return signatureError(MessageInvalidSignature, core.ErrorSignatureInvalid, "signature_mismatch")
	}
	return nil
}

// Sign returns the base64 encoded HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (v HMACVerifier) secret(ctx context.Context) (string, error) {
	if v.Settings != nil {
		value, ok, err := v.Settings.Get(ctx, core.SettingShipHeroDefaultSecret)
		if err != nil {
			return "", core.WrapError(err, goerrors.CategoryInternal, "webhooks: read webhook secret", core.ErrorInternal, nil)
		}
		if ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}
	return strings.TrimSpace(v.FallbackSecret), nil
}

func (v HMACVerifier) warn(msg string, args ...any) {
	if v.Logger != nil {
		v.Logger.Warn(msg, args...)
	}
}

func (v HMACVerifier) error(msg string, args ...any) {
	if v.Logger != nil {
		v.Logger.Error(msg, args...)
	}
}

func signatureError(message string, textCode string, reason string) error {
	return core.NewError(message, goerrors.CategoryAuth, textCode, map[string]any{"reason": reason})
}
