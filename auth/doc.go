// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and secret comparison utilities.

# Session Tokens

Voters log in with their dni and receive a random 32-byte (256-bit) token:

	token, err := auth.GenerateSessionToken()

Tokens are hex encoded and stored on the voter row with an expiry. Clients
send them as "Authorization: Bearer <token>"; ParseBearer rejects anything
that is not a well-formed token before the store is queried.

# Admin Key

The admin surface is protected by one shared secret from configuration:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

Both values are hashed before a constant-time comparison, so neither the
content nor the length of the key leaks through timing.

# IP Hashing

Client IPs are never stored. Rate limit keys use a salted HMAC:

	key := auth.HashIP(clientIP, cfg.IPHashSalt)
*/
package auth
