package bucket

import (
	"strings"

	"github.com/ethanbaker/bucket/pkg/factoid"
)

// QuoteBufferSize is how many lines are remembered per nick per channel
const QuoteBufferSize = 15

// quoteLine is one remembered line
type quoteLine struct {
	nick   string // As spoken, not normalized
	text   string
	action bool
}

// tidbit renders the line the way it is stored as a quote
func (q quoteLine) tidbit() string {
	if q.action {
		return "* " + q.nick + " " + q.text
	}
	return "<" + q.nick + "> " + q.text
}

// quoteBuffer keeps the most recent lines of every nick in every channel, newest first
type quoteBuffer struct {
	lines map[string]map[string][]quoteLine
}

func newQuoteBuffer() *quoteBuffer {
	return &quoteBuffer{lines: make(map[string]map[string][]quoteLine)}
}

// add remembers a line, forgetting the oldest one of the nick when the buffer is full
func (b *quoteBuffer) add(channel, nick, text string, action bool) {
	byNick, exists := b.lines[channel]
	if !exists {
		byNick = make(map[string][]quoteLine)
		b.lines[channel] = byNick
	}

	key := strings.ToLower(nick)
	lines := append([]quoteLine{{nick: nick, text: text, action: action}}, byNick[key]...)
	if len(lines) > QuoteBufferSize {
		lines = lines[:QuoteBufferSize]
	}
	byNick[key] = lines
}

// find returns the newest line of nick in channel containing word, ignoring case and punctuation
func (b *quoteBuffer) find(channel, nick, word string) (quoteLine, bool) {
	needle := factoid.RemovePunctuation(strings.ToLower(word))
	for _, line := range b.lines[channel][strings.ToLower(nick)] {
		if strings.Contains(factoid.RemovePunctuation(strings.ToLower(line.text)), needle) {
			return line, true
		}
	}
	return quoteLine{}, false
}
