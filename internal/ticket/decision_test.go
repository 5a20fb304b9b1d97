package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptDMText(t *testing.T) {
	t.Run("with a fresh invite", func(t *testing.T) {
		text := acceptDMText("<@1>", "добро пожаловать", "https://discord.gg/abc123")
		assert.Contains(t, text, "одобрена")
		assert.Contains(t, text, "https://discord.gg/abc123")
		assert.Contains(t, text, "1 раз, действует 24 часа")
		assert.Contains(t, text, "*добро пожаловать*")
	})

	t.Run("invite creation failed", func(t *testing.T) {
		text := acceptDMText("<@1>", "ок", "")
		assert.Contains(t, text, "напишите модератору")
		assert.NotContains(t, text, "1 раз", "a fallback must not be labeled single-use")
		assert.NotContains(t, text, "discord.gg")
	})
}

func TestRejectDMText(t *testing.T) {
	text := rejectDMText("<@1>", "мало часов", "https://discord.gg/Pgs8uZffhr")
	assert.Contains(t, text, "отклонена")
	assert.Contains(t, text, "*мало часов*")
	assert.Contains(t, text, "подавайте заявку повторно")
	assert.Contains(t, text, "https://discord.gg/Pgs8uZffhr")
}
