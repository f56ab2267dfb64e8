// Package confloader loads layered configuration with koanf.
//
// Sources, later ones overriding earlier ones:
//
//  1. Default values (whatever the target struct already holds)
//  2. A YAML file
//  3. Environment variables
//  4. Explicit overrides from LoadMap, used for command-line flags
//
// Environment variables are named PREFIX + SECTION__KEY. The double
// underscore separates levels, so single underscores survive in key names:
// FILEGATE_BOT__TOKEN_TTL maps to bot.token_ttl.
//
// Watcher reports changes to watched files so callers can reload.
package confloader
