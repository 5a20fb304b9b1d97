package ticket

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// markers the ticket bot wraps its confirmation phrase in
var markdownReplacer = strings.NewReplacer("**", "", "__", "", "*", "", "`", "")

// NormalizeText canonicalizes message text for trigger matching: lowercase,
// ё→е (the ticket bot is inconsistent about it), markdown emphasis stripped,
// whitespace collapsed, edge punctuation trimmed.
func NormalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, "ё", "е")
	text = markdownReplacer.Replace(text)
	text = whitespaceRE.ReplaceAllString(text, " ")
	return strings.Trim(text, " .,!?:;—-")
}

// MessageContainsTrigger reports whether the message, including every text
// field of its embeds in document order, contains the trigger phrase.
func MessageContainsTrigger(m *discordgo.Message, trigger string) bool {
	var parts []string
	if m.Content != "" {
		parts = append(parts, m.Content)
	}
	for _, emb := range m.Embeds {
		if emb.Title != "" {
			parts = append(parts, emb.Title)
		}
		if emb.Description != "" {
			parts = append(parts, emb.Description)
		}
		for _, f := range emb.Fields {
			if f.Name != "" {
				parts = append(parts, f.Name)
			}
			if f.Value != "" {
				parts = append(parts, f.Value)
			}
		}
		if emb.Footer != nil && emb.Footer.Text != "" {
			parts = append(parts, emb.Footer.Text)
		}
	}

	joined := NormalizeText(strings.Join(parts, " "))
	return strings.Contains(joined, NormalizeText(trigger))
}

// FromAutomation reports whether the message was authored by a bot or a
// webhook. A user quoting the trigger phrase must not summon the panel.
func FromAutomation(m *discordgo.Message) bool {
	if m.WebhookID != "" {
		return true
	}
	return m.Author != nil && m.Author.Bot
}
