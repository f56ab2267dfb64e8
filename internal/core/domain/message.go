package domain

// Button is one inline keyboard button. Exactly one of URL or Data is set.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
	Data string `json:"callback_data,omitempty"`
}

// Keyboard is an inline keyboard, row by row.
type Keyboard [][]Button

// ChannelMessage is a message fetched from the database channel.
type ChannelMessage struct {
	ID      int64
	Caption string // HTML

	// HasMedia is set for messages that can carry a caption.
	HasMedia    bool
	HasDocument bool
	FileName    string
	Keyboard    Keyboard
}

// MessageRef addresses an existing message by chat and message id.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// CopyOptions controls how a message is copied to a recipient.
type CopyOptions struct {
	// Caption replaces the original caption when non-nil.
	// Nil keeps the original.
	Caption *string

	// HTML renders Caption as HTML.
	HTML bool

	// Keyboard is attached to the copy. Nil sends no reply markup.
	Keyboard Keyboard

	// Protect forbids forwarding and saving the copy.
	Protect bool
}

// SendOptions controls how a text message is sent or edited.
type SendOptions struct {
	// HTML parses the text as Telegram HTML.
	HTML bool

	// Keyboard is attached as an inline keyboard when non-empty.
	Keyboard Keyboard

	// ReplyTo quotes the message with this id in the same chat.
	ReplyTo int64

	// DisablePreview turns off link previews.
	DisablePreview bool
}
