package bucket

import (
	"regexp"
	"strings"
	"sync"
)

// Line is one inbound chat line, already parsed by the transport
type Line struct {
	Nick      string `json:"nick"`
	Channel   string `json:"channel"`
	Text      string `json:"text"`      // Body with any leading address to the bot removed
	Addressed bool   `json:"addressed"` // The line named the bot as recipient
	Action    bool   `json:"action"`    // The line was a narrated action ("/me")
	Admin     bool   `json:"admin"`
	Op        bool   `json:"op"`
	Private   bool   `json:"private"` // Direct message rather than a channel
}

// StripAddress removes a leading "nick:", "nick," or "nick " from text. It reports whether the
// text was addressed to nick
func StripAddress(nick, text string) (string, bool) {
	loc := addressPattern(nick).FindStringIndex(text)
	if loc == nil {
		return text, false
	}
	return strings.TrimSpace(text[loc[1]:]), true
}

// addressPatterns holds the compiled address pattern of every nick seen, keyed by lowercase nick
var addressPatterns sync.Map

func addressPattern(nick string) *regexp.Regexp {
	key := strings.ToLower(nick)
	if re, ok := addressPatterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}

	re := regexp.MustCompile(`(?i)^\s*@?` + regexp.QuoteMeta(nick) + `(?:[:,]\s*|\s+|$)`)
	actual, _ := addressPatterns.LoadOrStore(key, re)
	return actual.(*regexp.Regexp)
}
