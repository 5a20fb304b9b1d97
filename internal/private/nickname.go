// Package private handles onboarding into the private guild: the one-time
// invite handed out on accept, and the nickname form that sets members up as
// "Ник в стиме | Имя".
package private

import (
	"strings"
	"unicode"
)

// Discord's hard limit on nicknames.
const nickMaxLen = 32

var nickSeparator = " | "

// cleanOneLine flattens the raw form input: one line, single spaces, trimmed.
func cleanOneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.Join(strings.Fields(s), " ")
}

// smartTitleCase uppercases the first letter of every word but leaves the rest
// of the word alone, so names like "McDonald" or camel-cased Steam handles
// survive.
func smartTitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func truncRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// FormatNickname builds the private-guild nickname. When the combination
// exceeds Discord's 32-character cap, the Steam handle is shortened so the
// real name stays intact.
func FormatNickname(steam, real string) string {
	steam = smartTitleCase(cleanOneLine(steam))
	real = smartTitleCase(cleanOneLine(real))

	nick := steam + nickSeparator + real
	if len([]rune(nick)) <= nickMaxLen {
		return nick
	}

	budget := nickMaxLen - len([]rune(nickSeparator)) - len([]rune(real))
	if budget >= 1 {
		return truncRunes(steam, budget) + nickSeparator + real
	}
	// real name alone blows the cap: cut it down but keep at least one rune of
	// the steam handle and the separator
	real = truncRunes(real, nickMaxLen-len([]rune(nickSeparator))-1)
	return truncRunes(truncRunes(steam, 1)+nickSeparator+real, nickMaxLen)
}
