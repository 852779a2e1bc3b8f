package factoid

import (
	"fmt"

	"github.com/ethanbaker/bucket/pkg/store"
)

// Message is a rendered line of output
type Message struct {
	Text   string `json:"text"`
	Action bool   `json:"action"` // Narrated action ("/me") instead of plain speech
}

// Render turns a factoid into an outgoing message. Direct verbs are only rendered when the bot
// was addressed, and aliases are never rendered (they must be resolved first)
func Render(f *store.Factoid, addressed bool) *Message {
	if f == nil {
		return nil
	}

	switch NormalizeVerb(f.Verb) {
	case VerbReply:
		return &Message{Text: f.Tidbit}
	case VerbAction:
		return &Message{Text: f.Tidbit, Action: true}
	case VerbDirectReply:
		if !addressed {
			return nil
		}
		return &Message{Text: f.Tidbit}
	case VerbDirectAction:
		if !addressed {
			return nil
		}
		return &Message{Text: f.Tidbit, Action: true}
	case VerbAlias:
		return nil
	default:
		return &Message{Text: fmt.Sprintf("%s %s %s", f.Fact, f.Verb, f.Tidbit)}
	}
}

// Literal renders a factoid with its id, as used by literal dumps and "what was that"
func Literal(f *store.Factoid) string {
	return fmt.Sprintf("#%d - %s %s %s", f.ID, f.Fact, f.Verb, f.Tidbit)
}
