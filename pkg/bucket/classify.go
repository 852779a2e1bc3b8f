package bucket

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ethanbaker/bucket/pkg/factoid"
)

// Kind tags the intent of a line
type Kind int

const (
	KindNone Kind = iota
	KindTeachVerb
	KindTeachIsAre
	KindRemember
	KindDelete
	KindUndo
	KindDestroyItem
	KindGive
	KindSteal
	KindPopulate
	KindInventory
	KindShutUp
	KindComeBack
	KindWhatWasThat
	KindIgnored
	KindQuery
)

var kindNames = map[Kind]string{
	KindNone:        "none",
	KindTeachVerb:   "teach-verb",
	KindTeachIsAre:  "teach-is-are",
	KindRemember:    "remember",
	KindDelete:      "delete",
	KindUndo:        "undo",
	KindDestroyItem: "destroy-item",
	KindGive:        "give",
	KindSteal:       "steal",
	KindPopulate:    "populate",
	KindInventory:   "inventory",
	KindShutUp:      "shut-up",
	KindComeBack:    "come-back",
	KindWhatWasThat: "what-was-that",
	KindIgnored:     "ignored",
	KindQuery:       "query",
}

// String returns the name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Intent is the classified meaning of a line. Only the fields relevant to Kind are set
type Intent struct {
	Kind Kind

	// Teaching
	Fact   string
	Verb   string
	Tidbit string

	// Remember
	Quotee string
	Word   string

	// Delete
	ID uint

	// Inventory
	Item string

	// Query
	Term      string // Normalized search term
	Literal   bool
	Pattern   bool // Term ~= /Substring/
	Substring string
}

// rule is one entry of the classification table
type rule struct {
	name  string
	match func(c *classifier, line Line) (Intent, bool)
}

// rules are evaluated in order and the first match wins
var rules = []rule{
	{"teach-verb", (*classifier).teachVerb},
	{"teach-is-are", (*classifier).teachIsAre},
	{"remember", (*classifier).remember},
	{"delete", (*classifier).deleteFact},
	{"undo", (*classifier).undo},
	{"destroy-item", (*classifier).destroyItem},
	{"give", (*classifier).give},
	{"steal", (*classifier).steal},
	{"populate", (*classifier).populate},
	{"inventory", (*classifier).inventory},
	{"query", (*classifier).query},
}

var (
	teachVerbRe   = regexp.MustCompile(`^(.*?) (<\S+>) (.*)$`)
	teachIsAreRe  = regexp.MustCompile(`^(.*?) (is|are) (.*)$`)
	questionRe    = regexp.MustCompile(`(?i)^(how|who|why|which|what|whom|where|when) (is|are) .*\?$`)
	rememberRe    = regexp.MustCompile(`(?i)^remember (\S+) (.+)$`)
	deleteRe      = regexp.MustCompile(`(?i)^delete #(\d+)$`)
	undoRe        = regexp.MustCompile(`(?i)^undo last$`)
	destroyRe     = regexp.MustCompile(`(?i)^annihilate item (.+)$`)
	takeRe        = regexp.MustCompile(`(?i)^(?:take|have) (.+)$`)
	populateRe    = regexp.MustCompile(`(?i)^you need new things`)
	inventoryRe   = regexp.MustCompile(`(?i)^inventory$`)
	searchRe      = regexp.MustCompile(`^(.*).~=./(.*)/`)
	possessiveRe  = regexp.MustCompile(`(?i)^(his|her|its|their) `)
	meRe          = regexp.MustCompile(`(?i)^me `)
	commandPrefix = regexp.MustCompile(`(?i)^(remember|delete|undo|annihilate|literal|take|have|inventory|you need new things)\b`)
)

// classifier holds the per-bot patterns that depend on the bot nick
type classifier struct {
	nick string

	giveTo     *regexp.Regexp // gives <bot> X
	putIn      *regexp.Regexp // puts X in <bot>
	giveToBot  *regexp.Regexp // gives X to <bot>
	stealFrom  *regexp.Regexp // steals <bot>'s X
	stealItem  *regexp.Regexp // steals X from <bot>
	minQueryLn int
}

func newClassifier(nick string, minQueryLength int) *classifier {
	n := regexp.QuoteMeta(nick)
	return &classifier{
		nick:       nick,
		giveTo:     regexp.MustCompile(`(?i)^(?:gives|hands|throws|serves) ` + n + ` (.+)$`),
		putIn:      regexp.MustCompile(`(?i)^puts (.+) in ` + n + `$`),
		giveToBot:  regexp.MustCompile(`(?i)^(?:gives|hands|serves) (.+) to ` + n + `$`),
		stealFrom:  regexp.MustCompile(`(?i)^(?:steals|takes) ` + n + `'s (.+)$`),
		stealItem:  regexp.MustCompile(`(?i)^(?:steals|takes) (.+) from ` + n + `$`),
		minQueryLn: minQueryLength,
	}
}

// Classify returns the intent of a line
func (c *classifier) Classify(line Line) Intent {
	for _, r := range rules {
		if intent, ok := r.match(c, line); ok {
			return intent
		}
	}
	return Intent{Kind: KindNone}
}

func (c *classifier) teachVerb(line Line) (Intent, bool) {
	if !line.Addressed || line.Action || commandPrefix.MatchString(line.Text) {
		return Intent{}, false
	}

	m := teachVerbRe.FindStringSubmatch(line.Text)
	if m == nil {
		return Intent{}, false
	}
	return Intent{Kind: KindTeachVerb, Fact: m[1], Verb: m[2], Tidbit: m[3]}, true
}

func (c *classifier) teachIsAre(line Line) (Intent, bool) {
	if !line.Addressed || line.Action || commandPrefix.MatchString(line.Text) {
		return Intent{}, false
	}

	m := teachIsAreRe.FindStringSubmatch(line.Text)
	if m == nil {
		return Intent{}, false
	}

	for _, word := range strings.Fields(line.Text) {
		if factoid.IsSpecialVerb(word) {
			return Intent{}, false
		}
	}
	if questionRe.MatchString(m[1] + " " + m[2] + " " + m[3]) {
		return Intent{}, false
	}

	return Intent{Kind: KindTeachIsAre, Fact: m[1], Verb: m[2], Tidbit: m[3]}, true
}

func (c *classifier) remember(line Line) (Intent, bool) {
	if !line.Addressed {
		return Intent{}, false
	}

	m := rememberRe.FindStringSubmatch(line.Text)
	if m == nil {
		return Intent{}, false
	}
	return Intent{Kind: KindRemember, Quotee: strings.ToLower(m[1]), Word: strings.TrimSpace(m[2])}, true
}

func (c *classifier) deleteFact(line Line) (Intent, bool) {
	if !line.Addressed {
		return Intent{}, false
	}

	m := deleteRe.FindStringSubmatch(line.Text)
	if m == nil {
		return Intent{}, false
	}

	id, err := strconv.ParseUint(m[1], 10, 0)
	if err != nil {
		return Intent{}, false
	}
	return Intent{Kind: KindDelete, ID: uint(id)}, true
}

func (c *classifier) undo(line Line) (Intent, bool) {
	if !line.Addressed || !undoRe.MatchString(line.Text) {
		return Intent{}, false
	}
	return Intent{Kind: KindUndo}, true
}

func (c *classifier) destroyItem(line Line) (Intent, bool) {
	if !line.Addressed {
		return Intent{}, false
	}

	m := destroyRe.FindStringSubmatch(line.Text)
	if m == nil {
		return Intent{}, false
	}
	return Intent{Kind: KindDestroyItem, Item: strings.TrimSpace(m[1])}, true
}

func (c *classifier) give(line Line) (Intent, bool) {
	var item string

	switch {
	case line.Action:
		for _, re := range []*regexp.Regexp{c.giveTo, c.putIn, c.giveToBot} {
			if m := re.FindStringSubmatch(line.Text); m != nil {
				item = m[1]
				break
			}
		}

	case line.Addressed:
		m := takeRe.FindStringSubmatch(line.Text)
		if m == nil {
			break
		}

		rest := strings.TrimSpace(m[1])
		lower := strings.ToLower(rest)
		switch {
		case strings.HasPrefix(lower, "this "):
			item = rest[len("this "):]
		case strings.HasPrefix(lower, "my "):
			item = line.Nick + "'s " + rest[len("my "):]
		case strings.HasPrefix(lower, "your "):
			item = c.nick + "'s " + rest[len("your "):]
		default:
			item = meRe.ReplaceAllString(rest, line.Nick+" ")
		}
	}

	item = strings.TrimSpace(item)
	if item == "" {
		return Intent{}, false
	}

	item = strings.TrimSpace(possessiveRe.ReplaceAllString(item, line.Nick+"'s "))
	return Intent{Kind: KindGive, Item: item}, true
}

func (c *classifier) steal(line Line) (Intent, bool) {
	if !line.Action {
		return Intent{}, false
	}

	for _, re := range []*regexp.Regexp{c.stealFrom, c.stealItem} {
		if m := re.FindStringSubmatch(line.Text); m != nil {
			return Intent{Kind: KindSteal, Item: strings.TrimSpace(m[1])}, true
		}
	}
	return Intent{}, false
}

func (c *classifier) populate(line Line) (Intent, bool) {
	if !line.Addressed || !populateRe.MatchString(line.Text) {
		return Intent{}, false
	}
	return Intent{Kind: KindPopulate}, true
}

func (c *classifier) inventory(line Line) (Intent, bool) {
	if !line.Addressed || !inventoryRe.MatchString(strings.TrimSpace(line.Text)) {
		return Intent{}, false
	}
	return Intent{Kind: KindInventory}, true
}

func (c *classifier) query(line Line) (Intent, bool) {
	term := strings.TrimSpace(factoid.RemovePunctuation(strings.ToLower(strings.TrimSpace(line.Text))))

	switch {
	case !line.Addressed && len(line.Text) < c.minQueryLn:
		return Intent{}, false
	case line.Addressed && term == "":
		return Intent{}, false
	case !line.Addressed && term == "don't know":
		return Intent{}, false
	}

	if line.Addressed {
		switch term {
		case "shut up":
			return Intent{Kind: KindShutUp}, true
		case "come back", "unshutup", "get your sorry ass back here":
			return Intent{Kind: KindComeBack}, true
		case "what was that":
			return Intent{Kind: KindWhatWasThat}, true
		}
	}

	intent := Intent{Kind: KindQuery, Term: term}
	if strings.HasPrefix(term, "literal ") {
		intent.Literal = true
		intent.Term = strings.TrimSpace(term[len("literal "):])
	} else if strings.HasPrefix(term, "reload") || strings.HasPrefix(term, "update") {
		return Intent{Kind: KindIgnored}, true
	}

	if line.Addressed {
		if m := searchRe.FindStringSubmatch(intent.Term); m != nil {
			intent.Pattern = true
			intent.Term = strings.TrimSpace(m[1])
			intent.Substring = m[2]
		}
	}

	return intent, true
}
