package generation

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cookassist/backend/internal/retrieval"
)

// Static is the last tier of the fallback chain: a rule-based keyword
// responder. It is total over non-empty input and never returns an error;
// the user always gets some answer even with every model down.
type Static struct {
	rules []rule
}

type rule struct {
	keywords []string
	response string
}

const rephraseResponse = "I'm not sure I understood that one. Could you rephrase your question, or ask about a specific technique like boiling, frying, or baking?"

func NewStatic() *Static {
	return &Static{
		rules: []rule{
			{
				keywords: []string{"boil", "boiling"},
				response: "To boil water, fill a pot and heat it on high until large bubbles break the surface — that's 100°C at sea level. Salt the water once it boils, not before, and keep a lid on to get there faster.",
			},
			{
				keywords: []string{"fry", "frying", "saute", "sauté", "pan"},
				response: "For pan-frying, heat your pan on medium first, then add a little oil and wait until it shimmers before adding food. Don't overcrowd the pan, or things will steam instead of brown.",
			},
			{
				keywords: []string{"bake", "baking", "oven"},
				response: "When baking, always preheat the oven fully before the food goes in, measure ingredients carefully, and resist opening the door early — the temperature drop can make things sink.",
			},
			{
				keywords: []string{"rice"},
				response: "A reliable way to cook rice: rinse it until the water runs clear, use about two parts water to one part rice, bring to a boil, then cover and simmer on low for 15 minutes. Let it rest off the heat before fluffing.",
			},
			{
				keywords: []string{"egg", "eggs"},
				response: "For soft-boiled eggs, lower them into boiling water for 6-7 minutes; for hard-boiled, 9-10 minutes, then straight into cold water so they peel easily.",
			},
			{
				keywords: []string{"pasta", "noodle", "noodles", "spaghetti"},
				response: "Cook pasta in plenty of well-salted boiling water, stir in the first minute so it doesn't stick, and taste a piece a minute before the package time. Save a cup of the cooking water to loosen your sauce.",
			},
			{
				keywords: []string{"knife", "cut", "chop", "slice", "dice"},
				response: "Keep your knife sharp and curl the fingertips of your guiding hand under, so the knuckles guide the blade. A sharp knife is safer than a dull one because it won't slip.",
			},
			{
				keywords: []string{"season", "seasoning", "salt", "spice", "spices"},
				response: "Season in layers: a little salt at each cooking stage beats a lot at the end. Taste as you go — you can always add more, but you can't take it out.",
			},
			{
				keywords: []string{"burn", "burnt", "burned", "stick", "sticking"},
				response: "If food keeps burning or sticking, your heat is probably too high or the pan wasn't preheated with enough fat. Drop to medium, and let proteins release on their own — they unstick when they're ready to flip.",
			},
			{
				keywords: []string{"meat", "chicken", "steak", "pork"},
				response: "Let meat come toward room temperature before cooking, dry the surface for a better sear, and always rest it after — about five minutes for small cuts — so the juices stay in when you slice.",
			},
			{
				keywords: []string{"substitute", "replace", "instead"},
				response: "Common swaps: buttermilk is milk plus a spoonful of lemon juice or vinegar; one egg can be a quarter cup of yogurt in baking; fresh herbs can stand in for dried at three times the amount.",
			},
		},
	}
}

func (s *Static) Name() string { return "fallback" }

// Generate matches the question against the keyword table and returns the
// first hit, or the default rephrase response for unmatched input. The
// passages are ignored; with every model down there is nothing to condition
// on. Never fails.
func (s *Static) Generate(_ context.Context, question string, _ retrieval.Result) (string, error) {
	lower := strings.ToLower(question)
	for _, r := range s.rules {
		for _, kw := range r.keywords {
			if containsWord(lower, kw) {
				return r.response, nil
			}
		}
	}
	return rephraseResponse, nil
}

// containsWord does whole-word matching so "pan" doesn't fire on "expand"
// or inside accented words like "pané". Boundaries are decoded runes, not
// bytes, since both the text and the keywords can carry non-ASCII letters.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)

		beforeOK := true
		if start > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			beforeOK = !unicode.IsLetter(r)
		}
		afterOK := true
		if end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			afterOK = !unicode.IsLetter(r)
		}
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}
