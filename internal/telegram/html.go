package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// entitiesHTML renders text with its formatting entities as Telegram HTML.
// Entity offsets and lengths count UTF-16 code units.
func entitiesHTML(text string, entities []tgbotapi.MessageEntity) string {
	if len(entities) == 0 {
		return html.EscapeString(text)
	}

	units := utf16.Encode([]rune(text))
	opens := make(map[int][]string)
	closes := make(map[int][]string)
	for _, e := range entities {
		open, close := entityTags(e)
		start, end := e.Offset, e.Offset+e.Length
		if open == "" || start < 0 || end > len(units) || start >= end {
			continue
		}
		opens[start] = append(opens[start], open)
		// Entities sharing an end close in reverse opening order.
		closes[end] = append([]string{close}, closes[end]...)
	}

	var b strings.Builder
	for i := 0; i <= len(units); i++ {
		for _, c := range closes[i] {
			b.WriteString(c)
		}
		if i == len(units) {
			break
		}
		for _, o := range opens[i] {
			b.WriteString(o)
		}

		r := rune(units[i])
		if utf16.IsSurrogate(r) && i+1 < len(units) {
			r = utf16.DecodeRune(r, rune(units[i+1]))
			i++
		}
		b.WriteString(html.EscapeString(string(r)))
	}
	return b.String()
}

func entityTags(e tgbotapi.MessageEntity) (open, close string) {
	switch e.Type {
	case "bold":
		return "<b>", "</b>"
	case "italic":
		return "<i>", "</i>"
	case "underline":
		return "<u>", "</u>"
	case "strikethrough":
		return "<s>", "</s>"
	case "spoiler":
		return "<tg-spoiler>", "</tg-spoiler>"
	case "code":
		return "<code>", "</code>"
	case "pre":
		if e.Language != "" {
			return fmt.Sprintf(`<pre><code class="language-%s">`, html.EscapeString(e.Language)), "</code></pre>"
		}
		return "<pre>", "</pre>"
	case "text_link":
		return fmt.Sprintf(`<a href="%s">`, html.EscapeString(e.URL)), "</a>"
	case "text_mention":
		if e.User != nil {
			return fmt.Sprintf(`<a href="tg://user?id=%d">`, e.User.ID), "</a>"
		}
	}
	return "", ""
}
