package bucket

import (
	"regexp"
	"strings"

	"github.com/ethanbaker/bucket/pkg/inventory"
)

// Variables are matched in any case, "$Who" and "$ITEM" included
var (
	whoVar      = regexp.MustCompile(`(?i)\$who`)
	giveItemVar = regexp.MustCompile(`(?i)\$giveitem`)
	newItemVar  = regexp.MustCompile(`(?i)\$newitem`)
	itemVar     = regexp.MustCompile(`(?i)\$item`)
)

// substitution describes how tidbit variables are filled in
type substitution struct {
	who        string
	randomItem bool   // Replace $item with a random held item
	giveItem   string // Fixed value for $giveitem, if set
}

// expand fills in $who once, then $giveitem, $newitem and $item word by word so every
// occurrence draws its own item
func expand(tidbit string, inv *inventory.Inventory, sub substitution) string {
	tidbit = whoVar.ReplaceAllLiteralString(tidbit, sub.who)

	words := strings.Split(tidbit, " ")
	for n, word := range words {
		switch {
		case giveItemVar.MatchString(word):
			item := sub.giveItem
			if item == "" {
				item = inv.GiveItem()
			}
			words[n] = giveItemVar.ReplaceAllLiteralString(word, item)
		case newItemVar.MatchString(word):
			words[n] = newItemVar.ReplaceAllLiteralString(word, inv.AddRandom())
		case sub.randomItem && itemVar.MatchString(word):
			words[n] = itemVar.ReplaceAllLiteralString(word, inv.RandomItem())
		}
	}

	return strings.Join(words, " ")
}
