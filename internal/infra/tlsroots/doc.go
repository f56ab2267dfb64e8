// Package tlsroots loads TLS material from PEM files.
//
// Pool extends the system roots with extra CA certificates, for a Bot API
// server behind a private CA. KeyPair serves a certificate and key that can
// be reloaded while a server keeps running.
package tlsroots
