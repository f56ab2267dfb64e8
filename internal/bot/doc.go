// Package bot implements the chat front-end: one handler per command and
// callback, message templates, and a dispatcher that runs handlers
// concurrently with a request id in the logging context.
//
// /start checks channel membership first, then the token, and only then
// looks at the deep-link payload.
package bot
