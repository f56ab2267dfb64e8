// Package memory provides in-memory storage for filegate.
//
// It implements the token and user repositories on sharded concurrent
// maps. Data does not survive a restart, so the store is meant for
// development and tests.
//
// Thread Safety:
//
// Every operation touches a single shard under its lock. Claiming an
// unclaimed token pops it from its map, so only one caller can win.
package memory
