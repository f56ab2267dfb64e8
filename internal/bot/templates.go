package bot

import (
	"html"
	"strconv"
	"strings"

	"github.com/yndnr/filegate/internal/core/domain"
)

// Templates are the configurable user-facing texts, in Telegram HTML.
// They may use {first}, {last}, {username}, {mention} and {id}.
type Templates struct {
	Start string
	Force string
	About string
}

// DefaultTemplates returns the built-in texts.
func DefaultTemplates() Templates {
	return Templates{
		Start: "Hello {first}\n\nI can store private files in a channel and give them to you through a special link.",
		Force: "Hello {first}\n\n<b>You need to join my channel to use me.\n\nPlease join the channel.</b>",
		About: "<b>○ Creator: {mention}\n○ Files are delivered from a private channel.</b>",
	}
}

// withDefaults fills empty fields from DefaultTemplates.
func (t Templates) withDefaults() Templates {
	d := DefaultTemplates()
	if t.Start == "" {
		t.Start = d.Start
	}
	if t.Force == "" {
		t.Force = d.Force
	}
	if t.About == "" {
		t.About = d.About
	}
	return t
}

// Render fills the user placeholders in tmpl. Values are HTML-escaped.
func Render(tmpl string, u domain.User) string {
	username := ""
	if u.Username != "" {
		username = "@" + u.Username
	}
	return strings.NewReplacer(
		"{first}", html.EscapeString(u.FirstName),
		"{last}", html.EscapeString(u.LastName),
		"{username}", html.EscapeString(username),
		"{mention}", Mention(u),
		"{id}", strconv.FormatInt(u.ID, 10),
	).Replace(tmpl)
}

// Mention returns an HTML link to the user labelled with the first name.
func Mention(u domain.User) string {
	name := u.FirstName
	if name == "" {
		name = "user"
	}
	return `<a href="tg://user?id=` + strconv.FormatInt(u.ID, 10) + `">` + html.EscapeString(name) + `</a>`
}
