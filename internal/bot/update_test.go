package bot

import (
	"testing"

	"github.com/yndnr/filegate/internal/core/domain"
)

func TestMessage_Command(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantArgs string
	}{
		{"/start", "start", ""},
		{"/start Z2V0LTEyMzQ1", "start", "Z2V0LTEyMzQ1"},
		{"/Token@FileGateBot  abc  ", "token", "abc"},
		{"/check@FileGateBot", "check", ""},
		{"hello", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m := &Message{Text: tt.text}
			name, args := m.Command()
			if name != tt.wantName || args != tt.wantArgs {
				t.Errorf("Command() = (%q, %q), want (%q, %q)", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}

func TestUpdate_KindAndUser(t *testing.T) {
	tests := []struct {
		name     string
		update   Update
		wantKind string
		wantUser int64
	}{
		{"command", Update{Message: &Message{Text: "/users", From: domain.User{ID: 1}}}, "users", 1},
		{"unknown command", Update{Message: &Message{Text: "/whatever", From: domain.User{ID: 4}}}, "command", 4},
		{"text", Update{Message: &Message{Text: "hi", From: domain.User{ID: 2}}}, "message", 2},
		{"callback", Update{Callback: &Callback{Data: "about", From: domain.User{ID: 3}}}, "callback", 3},
		{"empty", Update{}, "other", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.update.Kind(); got != tt.wantKind {
				t.Errorf("Kind() = %q, want %q", got, tt.wantKind)
			}
			if got := tt.update.UserID(); got != tt.wantUser {
				t.Errorf("UserID() = %d, want %d", got, tt.wantUser)
			}
		})
	}
}
