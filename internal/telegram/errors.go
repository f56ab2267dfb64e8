package telegram

import (
	"errors"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yndnr/filegate/internal/core/domain"
)

// apiError extracts the Bot API error from err.
func apiError(err error) (*tgbotapi.Error, bool) {
	var p *tgbotapi.Error
	if errors.As(err, &p) && p != nil {
		return p, true
	}
	var v tgbotapi.Error
	if errors.As(err, &v) {
		return &v, true
	}
	return nil, false
}

// classify turns a client error into a *domain.DeliveryError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	e, ok := apiError(err)
	if !ok {
		return domain.NewDeliveryError(domain.DeliveryFailed, err)
	}

	msg := strings.ToLower(e.Message)
	switch {
	case e.Code == http.StatusTooManyRequests:
		return domain.NewFloodWait(time.Duration(e.RetryAfter)*time.Second, err)
	case e.Code == http.StatusForbidden && strings.Contains(msg, "blocked"):
		return domain.NewDeliveryError(domain.DeliveryBlocked, err)
	case e.Code == http.StatusForbidden && strings.Contains(msg, "deactivated"):
		return domain.NewDeliveryError(domain.DeliveryDeactivated, err)
	default:
		return domain.NewDeliveryError(domain.DeliveryFailed, err)
	}
}

// isBadRequest reports a 400 from the Bot API.
func isBadRequest(err error) bool {
	e, ok := apiError(err)
	return ok && e.Code == http.StatusBadRequest
}

// isNotModified reports an edit that would not change the message.
func isNotModified(err error) bool {
	e, ok := apiError(err)
	return ok && e.Code == http.StatusBadRequest && strings.Contains(e.Message, "message is not modified")
}

// scrubbedError hides the bot token that transport errors carry in the URL.
type scrubbedError struct {
	msg   string
	cause error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.cause }

func scrub(err error, token string) error {
	if err == nil || token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &scrubbedError{msg: strings.ReplaceAll(err.Error(), token, "<bot-token>"), cause: err}
}
