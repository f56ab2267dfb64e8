// Package telegram adapts the Telegram Bot API client to the interfaces
// used by the bot and the core services.
//
// Every failed call is classified into a *domain.DeliveryError so callers
// can tell a flood wait from a blocked or deactivated recipient.
package telegram
