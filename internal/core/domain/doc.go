// Package domain defines the core domain models for filegate.
//
// Domain models are plain values without any IO dependencies or
// framework coupling. This package contains:
//
//   - TokenRecord: a user's verification token and its expiry
//   - UserRecord: a user known to the bot
//   - ChannelMessage: a message fetched from the database channel
//   - DeliveryError: classified failures from the messaging platform
//   - Errors: domain-specific error definitions
package domain
