// Package service provides domain services for filegate.
//
// Domain services contain the business logic of the bot and orchestrate
// operations on domain models. They define interfaces for storage and
// messaging dependencies, so every collaborator is passed in at
// construction and can be replaced by a test double.
//
// This package contains:
//
//   - TokenService: token issuance, validation, reset and claiming
//   - Gate: the channel-membership and token checks in front of content
//   - DeliveryService: deep-link resolution and copying content to a user
//   - BroadcastService: fan-out of one message to every known user
//   - UserService: the registry of users known to the bot
package service
