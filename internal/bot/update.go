package bot

import (
	"strings"

	"github.com/yndnr/filegate/internal/core/domain"
)

// Update is an incoming event. Exactly one of Message or Callback is set.
type Update struct {
	ID       int
	Message  *Message
	Callback *Callback
}

// Command names the bot reacts to.
const (
	CmdStart     = "start"
	CmdCheck     = "check"
	CmdToken     = "token"
	CmdUsers     = "users"
	CmdBroadcast = "broadcast"
)

// Callback data values.
const (
	CbStopProcess = "stop_process"
	CbAbout       = "about"
	CbClose       = "close"
)

var knownCommands = map[string]bool{
	CmdStart: true, CmdCheck: true, CmdToken: true, CmdUsers: true, CmdBroadcast: true,
}

// Kind names the update for logs and metrics. Unknown commands share one
// name so user input cannot grow the label set.
func (u Update) Kind() string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Message != nil:
		cmd, _ := u.Message.Command()
		switch {
		case knownCommands[cmd]:
			return cmd
		case cmd != "":
			return "command"
		}
		return "message"
	default:
		return "other"
	}
}

// UserID returns the id of the user who caused the update.
func (u Update) UserID() int64 {
	switch {
	case u.Callback != nil:
		return u.Callback.From.ID
	case u.Message != nil:
		return u.Message.From.ID
	}
	return 0
}

// Message is a text message sent to the bot.
type Message struct {
	ID      int64
	ChatID  int64
	Private bool
	From    domain.User
	Text    string

	// ReplyTo is the message this one replies to, if any.
	ReplyTo *domain.MessageRef
}

// Ref returns a reference to the message.
func (m *Message) Ref() domain.MessageRef {
	return domain.MessageRef{ChatID: m.ChatID, MessageID: m.ID}
}

// Command splits "/name@bot args" into its lowercase name and the
// trimmed argument string. Non-commands give an empty name.
func (m *Message) Command() (name, args string) {
	if !strings.HasPrefix(m.Text, "/") {
		return "", ""
	}
	head, rest, _ := strings.Cut(m.Text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// Callback is a press on an inline keyboard button.
type Callback struct {
	ID   string
	From domain.User
	Data string

	// Message is the message carrying the keyboard, if still accessible.
	Message *domain.MessageRef
}
