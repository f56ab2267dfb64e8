// Package mongo provides a MongoDB-backed token and user store.
//
// Collections:
//
//	tokens  {user_id, token, expiration_time}   one document per user
//	        {token}                             minted, not yet claimed
//	users   {_id: user_id, created_at}
//
// A partial unique index on tokens.user_id keeps at most one record per
// user while allowing any number of unclaimed documents.
package mongo
