package slugparse

import "strings"

// Dictionaries holds the read-only classification sets consulted while splitting a card
// slug. Build one at startup (Default for production, NewDictionaries for tests) and
// share it freely; lookups are case-insensitive and the sets are never mutated.
type Dictionaries struct {
	teamAbbreviations map[string]struct{}
	firstNames        map[string]struct{}
	cardTerms         map[string]struct{}
}

// DictionaryConfig lists the raw entries for each classification set.
type DictionaryConfig struct {
	// TeamAbbreviations are short team codes that may legitimately appear inside a
	// card number (e.g. "ari", "lad").
	TeamAbbreviations []string
	// FirstNames are given names treated as the strongest signal that a player name
	// starts at a token.
	FirstNames []string
	// CardTerms are rarity/finish/insert words that must never be taken as the start
	// of a player name.
	CardTerms []string
}

// NewDictionaries builds an immutable dictionary handle from the provided entries.
// Entries are lowercased on the way in so later lookups stay case-insensitive.
func NewDictionaries(cfg DictionaryConfig) *Dictionaries {
	return &Dictionaries{
		teamAbbreviations: toSet(cfg.TeamAbbreviations),
		firstNames:        toSet(cfg.FirstNames),
		cardTerms:         toSet(cfg.CardTerms),
	}
}

// Default returns the curated production dictionaries.
func Default() *Dictionaries {
	return NewDictionaries(DictionaryConfig{
		TeamAbbreviations: defaultTeamAbbreviations,
		FirstNames:        defaultFirstNames,
		CardTerms:         defaultCardTerms,
	})
}

func (d *Dictionaries) isTeamAbbreviation(token string) bool {
	_, ok := d.teamAbbreviations[strings.ToLower(token)]
	return ok
}

func (d *Dictionaries) isFirstName(token string) bool {
	_, ok := d.firstNames[strings.ToLower(token)]
	return ok
}

func (d *Dictionaries) isCardTerm(token string) bool {
	_, ok := d.cardTerms[strings.ToLower(token)]
	return ok
}

func toSet(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		set[strings.ToLower(entry)] = struct{}{}
	}
	return set
}

// MLB team codes, including the historical variants that show up on older checklists.
var defaultTeamAbbreviations = []string{
	"ari", "atl", "bal", "bos", "chc", "chw", "cws", "cin", "cle", "col",
	"det", "hou", "kc", "kcr", "laa", "lad", "mia", "mil", "min", "nym",
	"nyy", "oak", "phi", "pit", "sd", "sdp", "sea", "sf", "sfg", "stl",
	"tb", "tbr", "tex", "tor", "was", "wsh", "fla", "mon", "ana",
}

// The curated first-name list is intentionally conservative: a hit is treated as a hard
// signal, so only names that are unambiguous in checklist slugs belong here. Uncommon
// names are left to the structural fallback.
var defaultFirstNames = []string{
	"aaron", "adam", "adley", "adrian", "alan", "albert", "alec", "alex",
	"alexander", "alfonso", "andre", "andres", "andrew", "andy", "anthony",
	"austin", "babe", "barry", "bert", "bill", "billy", "blake", "bo", "bob",
	"bobby", "brandon", "brayan", "brendan", "brent", "brett", "brian", "bryan",
	"bryce", "byron", "cal", "carl", "carlos", "cedric", "chad", "charlie",
	"chase", "chipper", "chris", "christian", "clayton", "cody", "cole",
	"corbin", "corey", "craig", "cristian", "dansby", "daniel", "danny",
	"dave", "david", "derek", "devin", "dustin", "dylan", "eddie", "edwin",
	"elly", "eloy", "enrique", "eric", "erick", "ernie", "eugenio", "evan",
	"felix", "fernando", "francisco", "frank", "freddie", "garrett", "gary",
	"gavin", "george", "gerrit", "giancarlo", "gleyber", "grayson", "greg",
	"gunnar", "hank", "hans", "harold", "harry", "henry", "hunter", "ian",
	"ichiro", "isaac", "jack", "jackson", "jacob", "jake", "james", "jared",
	"jarred", "jasson", "javier", "jazz", "jeff", "jeremy", "jesse", "jim",
	"jimmy", "joe", "joey", "john", "johnny", "jonathan", "jordan", "jorge",
	"jose", "josh", "joshua", "juan", "julio", "justin", "keith", "ken",
	"kenley", "kerry", "kevin", "kodai", "kris", "kyle", "lance", "larry",
	"logan", "lou", "louis", "luis", "luke", "manny", "marcell", "marcus",
	"mariano", "mark", "masataka", "matt", "matthew", "max", "michael",
	"mickey", "miguel", "mike", "mookie", "nathan", "nestor", "nick", "nolan",
	"oneil", "oscar", "ozzie", "patrick", "paul", "pedro", "pete", "peter",
	"rafael", "ralph", "randy", "raul", "reggie", "ricky", "riley", "robert",
	"roberto", "robin", "roger", "ronald", "roy", "ryan", "salvador", "sam",
	"sammy", "sandy", "scott", "sean", "seiya", "shane", "shohei", "spencer",
	"stephen", "steve", "steven", "ted", "teoscar", "thomas", "tim", "todd",
	"tom", "tommy", "tony", "travis", "trea", "trevor", "triston", "troy",
	"tyler", "vinnie", "vladimir", "wander", "wade", "walker", "will",
	"william", "willie", "willy", "xander", "yadier", "yordan", "yoshinobu",
	"zack", "zac",
}

// Rarity, finish, and insert vocabulary seen in card-number prefixes. Anything here is
// part of the number, never the start of a player name.
var defaultCardTerms = []string{
	"sp", "ssp", "rc", "auto", "au", "relic", "patch", "jersey", "bat",
	"gold", "silver", "bronze", "platinum", "black", "white", "red", "blue",
	"green", "orange", "purple", "pink", "teal", "aqua", "sepia", "rainbow",
	"camo", "holo", "foil", "chrome", "sapphire", "refractor", "xfractor",
	"prizm", "mojo", "wave", "shimmer", "velocity", "hyper", "ice", "lazer",
	"mini", "base", "insert", "parallel", "variation", "short", "print",
	"update", "series", "draft", "prospect", "rookie", "debut", "checklist",
	"league", "leaders", "highlights", "promo", "preview", "retail", "hobby",
	"numbered", "image", "photo",
}
