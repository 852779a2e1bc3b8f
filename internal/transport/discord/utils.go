package discord

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/ethanbaker/bucket/pkg/bucket"
	"github.com/ethanbaker/bucket/pkg/factoid"
)

// actionRe matches a whole message wrapped in single underscores or asterisks, which is how
// Discord clients send "/me"
var actionRe = regexp.MustCompile(`^(?:_([^_].*[^_]|[^_])_|\*([^*].*[^*]|[^*])\*)$`)

// toLine converts a Discord message into an engine line. Returns false for messages with no text
func toLine(botID, botNick string, m *discordgo.Message, admins map[string]bool) (bucket.Line, bool) {
	content := replaceMentions(strings.TrimSpace(m.Content), botID, botNick, m.Mentions)
	if content == "" {
		return bucket.Line{}, false
	}

	line := bucket.Line{
		Nick:    displayName(m.Author),
		Channel: m.ChannelID,
		Admin:   admins[m.Author.ID],
		Private: m.GuildID == "",
	}
	line.Op = line.Admin

	if text, ok := parseAction(content); ok {
		line.Action = true
		line.Text = text
		return line, true
	}

	line.Text, line.Addressed = bucket.StripAddress(botNick, content)
	if line.Private {
		line.Addressed = true
	}
	return line, true
}

// replaceMentions rewrites user mentions into plain names, with the bot's own mention becoming
// its nick so address detection works on it
func replaceMentions(content, botID, botNick string, mentions []*discordgo.User) string {
	content = strings.NewReplacer("<@"+botID+">", botNick, "<@!"+botID+">", botNick).Replace(content)

	for _, user := range mentions {
		if user == nil || user.ID == botID {
			continue
		}
		name := displayName(user)
		content = strings.NewReplacer("<@"+user.ID+">", name, "<@!"+user.ID+">", name).Replace(content)
	}
	return strings.TrimSpace(content)
}

// parseAction reports whether content is an italicized "/me" message and returns its body
func parseAction(content string) (string, bool) {
	m := actionRe.FindStringSubmatch(content)
	if m == nil {
		return content, false
	}

	text := m[1]
	if text == "" {
		text = m[2]
	}
	return strings.TrimSpace(text), true
}

// formatMessage renders an engine message as Discord markdown
func formatMessage(msg *factoid.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Action {
		return "_" + msg.Text + "_"
	}
	return msg.Text
}

// displayName prefers the global name over the account name
func displayName(user *discordgo.User) string {
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// chunkString splits a long string into smaller chunks, ensuring no chunk exceeds the specified size
func chunkString(s string, size int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	for len(s) > size {
		// Try to split on sentence boundaries
		split := findSplit(s[:size])
		out = append(out, strings.TrimSpace(s[:split]))
		s = s[split:]
	}
	if strings.TrimSpace(s) != "" {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// splitRe is a regex to find natural split points in text
var splitRe = regexp.MustCompile(`(?s)(.*?[\n\r]{2}|.*?[.!?])$`)

// findSplit finds the index of a good split point in the string
func findSplit(s string) int {
	m := splitRe.FindStringSubmatchIndex(s)
	if len(m) >= 4 {
		return m[3]
	}
	return len(s)
}
