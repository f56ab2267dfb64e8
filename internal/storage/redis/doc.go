// Package redis provides a Redis-backed token and user store.
//
// Key layout, with the configurable prefix (default "filegate"):
//
//	<prefix>:token:<user_id>   hash {token, expiration_time}
//	<prefix>:unclaimed         set of minted tokens not yet attached to a user
//	<prefix>:users             sorted set of user ids scored by registration time
//
// expiration_time is RFC 3339 with nanoseconds, or empty after a reset.
package redis
