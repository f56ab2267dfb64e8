package deeplink

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Tag prefixes every payload literal.
	Tag = "get"

	// Separator joins the tag and the encoded ids.
	Separator = "-"

	// DefaultMaxBatch caps how many ids one range payload may expand to.
	DefaultMaxBatch = 200
)

var (
	// ErrZeroMagnitude is returned when the channel id is zero.
	ErrZeroMagnitude = errors.New("deeplink: channel magnitude is zero")

	// ErrMalformed is returned for payloads that cannot be decoded.
	ErrMalformed = errors.New("deeplink: malformed payload")

	// ErrRangeTooLarge is returned when a range expands beyond the batch cap.
	ErrRangeTooLarge = errors.New("deeplink: range too large")
)

// Codec encodes and decodes payloads for one channel.
type Codec struct {
	magnitude *big.Int
	maxBatch  int64
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxBatch sets the largest range a payload may address.
// Values below 1 keep the default.
func WithMaxBatch(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxBatch = int64(n)
		}
	}
}

// NewCodec creates a codec for the channel with the given id.
func NewCodec(channelID int64, opts ...Option) (*Codec, error) {
	if channelID == 0 {
		return nil, ErrZeroMagnitude
	}
	k := big.NewInt(channelID)
	k.Abs(k)

	c := &Codec{
		magnitude: k,
		maxBatch:  DefaultMaxBatch,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Magnitude returns the channel magnitude K.
func (c *Codec) Magnitude() *big.Int {
	return new(big.Int).Set(c.magnitude)
}

// MaxBatch returns the largest range a payload may address.
func (c *Codec) MaxBatch() int {
	return int(c.maxBatch)
}

// EncodeSingle returns the payload addressing one message.
func (c *Codec) EncodeSingle(id int64) string {
	return encode(Tag + Separator + c.scale(id))
}

// EncodeRange returns the payload addressing the messages first..last.
// Reversed bounds are kept as given; they decode to a descending sequence.
func (c *Codec) EncodeRange(first, last int64) string {
	return encode(Tag + Separator + c.scale(first) + Separator + c.scale(last))
}

// Decode parses a payload produced by EncodeSingle or EncodeRange.
func (c *Codec) Decode(payload string) (Payload, error) {
	literal, err := decode(payload)
	if err != nil {
		return Payload{}, err
	}
	return c.Parse(literal)
}

// Parse parses a payload literal such as "get-1000" or "get-500-550".
func (c *Codec) Parse(literal string) (Payload, error) {
	args := strings.Split(literal, Separator)
	if args[0] != Tag {
		return Payload{}, fmt.Errorf("%w: unknown tag %q", ErrMalformed, args[0])
	}

	switch len(args) {
	case 2:
		id, err := c.unscale(args[1])
		if err != nil {
			return Payload{}, err
		}
		return Payload{Start: id, End: id}, nil

	case 3:
		start, err := c.unscale(args[1])
		if err != nil {
			return Payload{}, err
		}
		end, err := c.unscale(args[2])
		if err != nil {
			return Payload{}, err
		}
		p := Payload{Start: start, End: end, Range: true}
		if p.Len() > c.maxBatch {
			return Payload{}, fmt.Errorf("%w: %d ids, limit %d", ErrRangeTooLarge, p.Len(), c.maxBatch)
		}
		return p, nil

	default:
		return Payload{}, fmt.Errorf("%w: %d arguments", ErrMalformed, len(args)-1)
	}
}

// URL returns the shareable link that starts the bot with payload.
func URL(botUsername, payload string) string {
	return "https://t.me/" + strings.TrimPrefix(botUsername, "@") + "?start=" + payload
}

func (c *Codec) scale(id int64) string {
	return new(big.Int).Mul(big.NewInt(id), c.magnitude).String()
}

// unscale converts an encoded argument back to a message id using
// truncating integer division by the magnitude.
func (c *Codec) unscale(arg string) (int64, error) {
	n, ok := new(big.Int).SetString(arg, 10)
	if !ok {
		return 0, fmt.Errorf("%w: non-numeric argument %q", ErrMalformed, arg)
	}
	n.Quo(n, c.magnitude)
	if !n.IsInt64() || n.Int64() < 1 {
		return 0, fmt.Errorf("%w: message id out of range", ErrMalformed)
	}
	return n.Int64(), nil
}

func encode(literal string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(literal))
}

// decode accepts both padded and unpadded URL-safe base64.
func decode(payload string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(payload), "="))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return string(raw), nil
}
