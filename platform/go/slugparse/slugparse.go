// Package slugparse splits a hyphen-delimited card slug into its card-number and
// player-name halves. Card URLs carry both in a single path segment with no separator
// markup ("c90a-ari-austin-riley"), so the boundary has to be recovered with layered
// heuristics: a recognized given name is the strongest signal, a structural scan covers
// slugs without one, and anything unrecognizable falls back to "the whole slug is the
// card number".
package slugparse

import "strings"

// Decomposition is the result of splitting a card slug. CardNumber is uppercased and
// PlayerSlug lowercased regardless of input casing; PlayerSlug is empty when no name
// portion was found.
type Decomposition struct {
	CardNumber string
	PlayerSlug string
}

// Slug reassembles the canonical lowercase slug from the two halves.
func (d Decomposition) Slug() string {
	if d.PlayerSlug == "" {
		return strings.ToLower(d.CardNumber)
	}
	return strings.ToLower(d.CardNumber) + "-" + d.PlayerSlug
}

// splitStrategy inspects the token sequence and proposes the index where the player
// name begins. Strategies run in order; the first hit wins and later strategies are
// never consulted.
type splitStrategy func(tokens []string) (splitIndex int, ok bool)

// Engine decomposes card slugs using the provided dictionaries. It is stateless after
// construction and safe for concurrent use.
type Engine struct {
	dicts      *Dictionaries
	strategies []splitStrategy
}

// New builds an Engine around the given dictionaries. Pass slugparse.Default() outside
// of tests.
func New(dicts *Dictionaries) *Engine {
	if dicts == nil {
		panic("slugparse: dictionaries are required")
	}

	e := &Engine{dicts: dicts}
	e.strategies = []splitStrategy{
		e.firstNameSplit,
		e.structuralSplit,
	}
	return e
}

// Decompose splits slug into a card number and a player slug. It is total: any input,
// including the empty string or a slug with no hyphens, yields a best-effort result
// rather than an error. Callers are expected to hand in an already lowercased,
// hyphen-joined path segment; casing of the output is normalized either way.
func (e *Engine) Decompose(slug string) Decomposition {
	tokens := strings.Split(slug, "-")

	for _, strategy := range e.strategies {
		if splitIndex, ok := strategy(tokens); ok {
			return decomposeAt(tokens, splitIndex)
		}
	}

	// No recognizable name anywhere (e.g. a pure checklist identifier).
	return Decomposition{CardNumber: strings.ToUpper(slug)}
}

// firstNameSplit looks for the first token present in the first-name set. A match at
// index 0 means the slug starts with what looks like a name; well-formed slugs always
// lead with a number token, so the first token is still kept as the card number.
func (e *Engine) firstNameSplit(tokens []string) (int, bool) {
	for i, token := range tokens {
		if e.dicts.isFirstName(token) {
			if i == 0 {
				return 1, true
			}
			return i, true
		}
	}
	return 0, false
}

// structuralSplit scans from index 1 (token 0 always belongs to the card number) for
// the first token that cannot plausibly be part of the number: not a team code, not
// purely numeric, longer than one character, and not a card term.
func (e *Engine) structuralSplit(tokens []string) (int, bool) {
	for i := 1; i < len(tokens); i++ {
		token := tokens[i]
		if e.dicts.isTeamAbbreviation(token) {
			continue
		}
		if allDigits(token) {
			continue
		}
		if len(token) <= 1 {
			continue
		}
		if e.dicts.isCardTerm(token) {
			continue
		}
		return i, true
	}
	return 0, false
}

func decomposeAt(tokens []string, splitIndex int) Decomposition {
	if splitIndex > len(tokens) {
		splitIndex = len(tokens)
	}
	return Decomposition{
		CardNumber: strings.ToUpper(strings.Join(tokens[:splitIndex], "-")),
		PlayerSlug: strings.ToLower(strings.Join(tokens[splitIndex:], "-")),
	}
}

// allDigits reports whether token is non-empty and consists only of ASCII digits.
func allDigits(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
