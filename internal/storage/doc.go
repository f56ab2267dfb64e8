// Package storage selects and opens the token and user store.
//
// Four backends implement the same contract (see storetest):
//
//   - memory: sharded maps, lost on restart; for tests and local runs
//   - badger: embedded Badger database, claims run in one transaction
//   - redis:  hashes, a set of unclaimed tokens and a sorted set of users
//   - mongo:  the tokens/users collections used by the original deployment
package storage
