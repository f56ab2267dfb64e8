// Package deeplink encodes and decodes the start payloads of shareable bot links.
//
// A payload addresses one message or a contiguous range of messages in the
// database channel:
//
//   - single: "get-<id*K>"
//   - range:  "get-<first*K>-<last*K>"
//
// where K is the channel magnitude, the absolute value of the channel's
// numeric identifier. The literal is carried as unpadded URL-safe base64 in
// the start parameter of https://t.me/<bot>?start=<payload>.
//
// Arithmetic uses math/big so that payloads produced with large channel
// magnitudes decode exactly.
package deeplink
