package ticket

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

const trigger = "вы серьезно хотите закрыть данный тикет"

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"**Вы СЕРЬЕЗНО хотите закрыть данный тикет?**", "вы серьезно хотите закрыть данный тикет"},
		{"Вы серьёзно хотите закрыть данный тикет!", "вы серьезно хотите закрыть данный тикет"},
		{"  вы   серьезно\n хотите закрыть данный тикет  ", "вы серьезно хотите закрыть данный тикет"},
		{"`вы серьезно хотите закрыть данный тикет`...", "вы серьезно хотите закрыть данный тикет"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeText(c.in), "input %q", c.in)
	}
}

func TestMessageContainsTrigger(t *testing.T) {
	t.Run("plain content", func(t *testing.T) {
		msg := &discordgo.Message{Content: "**Вы СЕРЬЕЗНО хотите закрыть данный тикет?**"}
		assert.True(t, MessageContainsTrigger(msg, trigger))
	})

	t.Run("inside embed description", func(t *testing.T) {
		msg := &discordgo.Message{Embeds: []*discordgo.MessageEmbed{{
			Description: "Вы серьёзно хотите закрыть данный тикет?",
		}}}
		assert.True(t, MessageContainsTrigger(msg, trigger))
	})

	t.Run("inside embed field", func(t *testing.T) {
		msg := &discordgo.Message{Embeds: []*discordgo.MessageEmbed{{
			Fields: []*discordgo.MessageEmbedField{{
				Name:  "Подтверждение",
				Value: "вы серьезно хотите закрыть данный тикет",
			}},
		}}}
		assert.True(t, MessageContainsTrigger(msg, trigger))
	})

	t.Run("unrelated text", func(t *testing.T) {
		msg := &discordgo.Message{Content: "закрыть тикет когда-нибудь потом"}
		assert.False(t, MessageContainsTrigger(msg, trigger))
	})
}

func TestFromAutomation(t *testing.T) {
	assert.True(t, FromAutomation(&discordgo.Message{WebhookID: "123"}))
	assert.True(t, FromAutomation(&discordgo.Message{Author: &discordgo.User{Bot: true}}))
	assert.False(t, FromAutomation(&discordgo.Message{Author: &discordgo.User{}}))
	assert.False(t, FromAutomation(&discordgo.Message{}))
}

func TestExtractUserIDs(t *testing.T) {
	t.Run("mentions before bare ids, deduplicated", func(t *testing.T) {
		ids := ExtractUserIDs("<@111111111111111111> открыл тикет 222222222222222222 <@111111111111111111>")
		assert.Equal(t, []int64{111111111111111111, 222222222222222222}, ids)
	})

	t.Run("nickname mention form", func(t *testing.T) {
		ids := ExtractUserIDs("<@!333333333333333333>")
		assert.Equal(t, []int64{333333333333333333}, ids)
	})

	t.Run("short numbers ignored", func(t *testing.T) {
		assert.Empty(t, ExtractUserIDs("тикет #42 от 12345"))
	})
}
