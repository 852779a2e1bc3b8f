package bucket_test

import (
	"testing"

	"github.com/ethanbaker/bucket/pkg/bucket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		line bucket.Line
		want bucket.Intent
	}{
		{
			name: "teach verb",
			line: bucket.Line{Nick: "ann", Text: "coffee <reply> is life", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindTeachVerb, Fact: "coffee", Verb: "<reply>", Tidbit: "is life"},
		},
		{
			name: "teach verb wins over is",
			line: bucket.Line{Nick: "ann", Text: "sky is <reply> blue", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindTeachVerb, Fact: "sky is", Verb: "<reply>", Tidbit: "blue"},
		},
		{
			name: "teach is",
			line: bucket.Line{Nick: "ann", Text: "sky is blue", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindTeachIsAre, Fact: "sky", Verb: "is", Tidbit: "blue"},
		},
		{
			name: "teach are",
			line: bucket.Line{Nick: "ann", Text: "cats are great", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindTeachIsAre, Fact: "cats", Verb: "are", Tidbit: "great"},
		},
		{
			name: "questions are queries",
			line: bucket.Line{Nick: "ann", Text: "Who is there?", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindQuery, Term: "who is there"},
		},
		{
			name: "unaddressed is not taught",
			line: bucket.Line{Nick: "ann", Text: "sky is blue"},
			want: bucket.Intent{Kind: bucket.KindQuery, Term: "sky is blue"},
		},
		{
			name: "remember wins over teach",
			line: bucket.Line{Nick: "ann", Text: "remember Bob sky is blue", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindRemember, Quotee: "bob", Word: "sky is blue"},
		},
		{
			name: "delete",
			line: bucket.Line{Nick: "ann", Text: "delete #42", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindDelete, ID: 42},
		},
		{
			name: "undo",
			line: bucket.Line{Nick: "ann", Text: "undo last", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindUndo},
		},
		{
			name: "annihilate",
			line: bucket.Line{Nick: "ann", Text: "annihilate item old boot", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindDestroyItem, Item: "old boot"},
		},
		{
			name: "give me",
			line: bucket.Line{Nick: "ann", Text: "have me a cookie", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindGive, Item: "ann a cookie"},
		},
		{
			name: "give her",
			line: bucket.Line{Nick: "ann", Text: "take her book", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindGive, Item: "ann's book"},
		},
		{
			name: "give action",
			line: bucket.Line{Nick: "ann", Text: "throws Bucket a ball", Action: true},
			want: bucket.Intent{Kind: bucket.KindGive, Item: "a ball"},
		},
		{
			name: "serve action",
			line: bucket.Line{Nick: "ann", Text: "serves tea to bucket", Action: true},
			want: bucket.Intent{Kind: bucket.KindGive, Item: "tea"},
		},
		{
			name: "steal",
			line: bucket.Line{Nick: "ann", Text: "steals bucket's hat", Action: true},
			want: bucket.Intent{Kind: bucket.KindSteal, Item: "hat"},
		},
		{
			name: "steal from",
			line: bucket.Line{Nick: "ann", Text: "takes the hat from bucket", Action: true},
			want: bucket.Intent{Kind: bucket.KindSteal, Item: "the hat"},
		},
		{
			name: "populate",
			line: bucket.Line{Nick: "ann", Text: "you need new things!", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindPopulate},
		},
		{
			name: "inventory",
			line: bucket.Line{Nick: "ann", Text: "inventory", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindInventory},
		},
		{
			name: "shut up",
			line: bucket.Line{Nick: "ann", Text: "shut up!", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindShutUp},
		},
		{
			name: "shut up unaddressed is just talk",
			line: bucket.Line{Nick: "ann", Text: "shut up!"},
			want: bucket.Intent{Kind: bucket.KindQuery, Term: "shut up"},
		},
		{
			name: "come back",
			line: bucket.Line{Nick: "ann", Text: "get your sorry ass back here", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindComeBack},
		},
		{
			name: "what was that",
			line: bucket.Line{Nick: "ann", Text: "What was that?", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindWhatWasThat},
		},
		{
			name: "reload",
			line: bucket.Line{Nick: "ann", Text: "reload bucket", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindIgnored},
		},
		{
			name: "literal",
			line: bucket.Line{Nick: "ann", Text: "literal Sky", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindQuery, Term: "sky", Literal: true},
		},
		{
			name: "pattern",
			line: bucket.Line{Nick: "ann", Text: "sky ~= /blu/", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindQuery, Term: "sky", Pattern: true, Substring: "blu"},
		},
		{
			name: "pattern needs addressing",
			line: bucket.Line{Nick: "ann", Text: "sky ~= /blu/"},
			want: bucket.Intent{Kind: bucket.KindQuery, Term: "sky ~= /blu/"},
		},
		{
			name: "short ambient",
			line: bucket.Line{Nick: "ann", Text: "hey"},
			want: bucket.Intent{Kind: bucket.KindNone},
		},
		{
			name: "empty addressed",
			line: bucket.Line{Nick: "ann", Text: "?!", Addressed: true},
			want: bucket.Intent{Kind: bucket.KindNone},
		},
		{
			name: "ambient don't know",
			line: bucket.Line{Nick: "ann", Text: "Don't know"},
			want: bucket.Intent{Kind: bucket.KindNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.engine.Classify(tt.line))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "teach-verb", bucket.KindTeachVerb.String())
	assert.Equal(t, "query", bucket.KindQuery.String())
	assert.Equal(t, "kind(99)", bucket.Kind(99).String())
}

func TestStripAddress(t *testing.T) {
	tests := []struct {
		text      string
		want      string
		addressed bool
	}{
		{text: "bucket: sky is blue", want: "sky is blue", addressed: true},
		{text: "Bucket, sky", want: "sky", addressed: true},
		{text: "@bucket sky", want: "sky", addressed: true},
		{text: "bucket", want: "", addressed: true},
		{text: "bucketeer: hi", want: "bucketeer: hi", addressed: false},
		{text: "sky is blue", want: "sky is blue", addressed: false},
	}

	for _, tt := range tests {
		got, addressed := bucket.StripAddress("bucket", tt.text)
		require.Equal(t, tt.addressed, addressed, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
