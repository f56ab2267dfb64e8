// Package command provides the filegate command-line interface.
//
// This package defines all commands using urfave/cli/v2:
//
//   - root.go: App, global flags, shared setup
//   - run.go: run the bot
//   - link.go: print deep links
//   - tokens.go: mint claimable tokens
//   - users.go: inspect the user registry
//   - config.go: show and check configuration
//   - version.go: build information
//
// Commands load the same configuration as the bot, so they act on the
// store the running bot uses.
package command
