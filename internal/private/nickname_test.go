package private

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNickname(t *testing.T) {
	t.Run("short names pass through title-cased", func(t *testing.T) {
		assert.Equal(t, "Player | Иван", FormatNickname("player", "иван"))
	})

	t.Run("inner capitals survive", func(t *testing.T) {
		assert.Equal(t, "McDonald | Ваня", FormatNickname("mcDonald", "ваня"))
	})

	t.Run("whitespace flattened", func(t *testing.T) {
		assert.Equal(t, "Sh Player | Иван", FormatNickname("  sh\nplayer ", " иван "))
	})

	t.Run("steam handle shortened to fit the cap", func(t *testing.T) {
		nick := FormatNickname("VeryLongSteamNickname123", "AlexanderTheGreat")
		assert.Len(t, []rune(nick), 32)
		assert.Contains(t, nick, " | ")
		assert.True(t, strings.HasSuffix(nick, "AlexanderTheGreat"), "real name must stay intact: %q", nick)
	})

	t.Run("oversized real name keeps a steam rune and the separator", func(t *testing.T) {
		nick := FormatNickname("VeryLongSteamHandle", strings.Repeat("я", 40))
		assert.Len(t, []rune(nick), 32)
		assert.True(t, strings.HasPrefix(nick, "V | Я"), "one steam rune plus separator must survive: %q", nick)
		assert.True(t, strings.HasSuffix(nick, strings.Repeat("я", 27)), "real name cut to fit: %q", nick)
	})
}

func TestSmartTitleCase(t *testing.T) {
	assert.Equal(t, "Иван Петров", smartTitleCase("иван петров"))
	assert.Equal(t, "AlexanderTheGreat", smartTitleCase("alexanderTheGreat"))
	assert.Equal(t, "", smartTitleCase("   "))
}

func TestCleanOneLine(t *testing.T) {
	assert.Equal(t, "a b c", cleanOneLine(" a\nb\r\n c "))
	assert.Equal(t, "", cleanOneLine("\n\n"))
}
