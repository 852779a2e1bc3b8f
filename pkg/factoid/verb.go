package factoid

import (
	"regexp"
	"strings"
)

// Special verbs change how a factoid is rendered
const (
	VerbReply        = "<reply>"
	VerbAction       = "<action>"
	VerbDirectReply  = "<directreply>"
	VerbDirectAction = "<directaction>"
	VerbAlias        = "<alias>"
)

var specialVerbs = map[string]bool{
	VerbReply:        true,
	VerbAction:       true,
	VerbDirectReply:  true,
	VerbDirectAction: true,
	VerbAlias:        true,
}

// IsSpecialVerb reports whether verb is one of the reserved rendering verbs
func IsSpecialVerb(verb string) bool {
	return specialVerbs[strings.ToLower(verb)]
}

// NormalizeVerb lowercases special verbs and strips the brackets off any other
// bracketed verb, so "<loves>" is stored as "loves"
func NormalizeVerb(verb string) string {
	verb = strings.TrimSpace(verb)
	if IsSpecialVerb(verb) {
		return strings.ToLower(verb)
	}

	if len(verb) > 2 && strings.HasPrefix(verb, "<") && strings.HasSuffix(verb, ">") {
		return verb[1 : len(verb)-1]
	}
	return verb
}

var punctuationRe = regexp.MustCompile(`[,.!?;:]`)

// RemovePunctuation strips the punctuation ignored by fact matching
func RemovePunctuation(s string) string {
	return punctuationRe.ReplaceAllString(s, "")
}
