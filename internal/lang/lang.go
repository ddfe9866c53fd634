// Package lang maps Slack flag reactions to DeepL target languages.
package lang

import (
	"sort"
	"strings"
)

const flagPrefix = "flag-"

var (
	// Country code reactions and the language spoken there
	reactionLanguages = map[string]string{
		// Bulgarian
		"bg": "bg",
		// Czech
		"cz": "cs",
		// Danish
		"dk": "da",
		// German
		"at": "de", "ch": "de", "de": "de", "li": "de",
		// Greek
		"gr": "el",
		// English
		"ac": "en", "ag": "en", "ai": "en", "as": "en", "au": "en", "bb": "en", "bn": "en", "bs": "en",
		"bw": "en", "bz": "en", "ca": "en", "ck": "en", "cx": "en", "dm": "en", "fj": "en", "fk": "en",
		"fm": "en", "gb": "en", "gd": "en", "gg": "en", "gh": "en", "gi": "en", "gm": "en", "gs": "en",
		"gu": "en", "gy": "en", "im": "en", "io": "en", "je": "en", "jm": "en", "ke": "en", "ki": "en",
		"kn": "en", "ky": "en", "lc": "en", "lr": "en", "mp": "en", "ms": "en", "mu": "en", "mw": "en",
		"na": "en", "nf": "en", "ng": "en", "nz": "en", "pn": "en", "pw": "en", "sb": "en", "sc": "en",
		"sg": "en", "sh": "en", "sl": "en", "ss": "en", "ta": "en", "tc": "en", "tt": "en", "ug": "en",
		"um": "en", "us": "en", "vc": "en", "vg": "en", "vi": "en", "zm": "en", "zw": "en",
		// Spanish
		"ar": "es", "bo": "es", "cl": "es", "co": "es", "cr": "es", "cu": "es", "do": "es", "ea": "es",
		"ec": "es", "es": "es", "gq": "es", "gt": "es", "hn": "es", "ic": "es", "mx": "es", "ni": "es",
		"pa": "es", "pe": "es", "pr": "es", "py": "es", "sv": "es", "uy": "es", "ve": "es",
		// Estonian
		"ee": "et",
		// Finnish
		"fi": "fi",
		// French
		"bf": "fr", "bi": "fr", "bj": "fr", "bl": "fr", "cd": "fr", "cf": "fr", "cg": "fr", "ci": "fr",
		"cm": "fr", "cp": "fr", "dj": "fr", "fr": "fr", "ga": "fr", "gf": "fr", "gn": "fr", "gp": "fr",
		"mc": "fr", "ml": "fr", "mq": "fr", "nc": "fr", "ne": "fr", "pf": "fr", "pm": "fr", "re": "fr",
		"sn": "fr", "td": "fr", "tf": "fr", "tg": "fr", "wf": "fr", "yt": "fr",
		// Hungarian
		"hu": "hu",
		// Indonesian
		"id": "id",
		// Italian
		"it": "it", "sm": "it", "va": "it",
		// Japanese
		"jp": "ja",
		// Korean
		"kr": "ko",
		// Lithuanian
		"lt": "lt",
		// Dutch
		"aw": "nl", "be": "nl", "bq": "nl", "cw": "nl", "nl": "nl", "sr": "nl", "sx": "nl",
		// Polish
		"pl": "pl",
		// Portuguese
		"ao": "pt", "br": "pt", "cv": "pt", "gw": "pt", "mz": "pt", "pt": "pt", "st": "pt",
		// Romanian
		"ro": "ro",
		// Russian
		"ru": "ru",
		// Slovak
		"sk": "sk",
		// Slovenian
		"si": "sl",
		// Swedish
		"se": "sv",
		// Turkish
		"tr": "tr",
		// Ukrainian
		"ua": "uk",
		// Chinese
		"cn": "zh",
	}

	// topReactions feeds the reaction selector of the configuration form,
	// which accepts at most 100 options
	topReactions = []string{"cn", "de", "es", "fr", "gb", "it", "jp", "kr", "pl", "pt", "ru", "us", "bg", "fi", "hu", "id", "lt", "ro", "sk", "tr"}
)

// FromReaction returns the target language for a reaction name such as
// "jp" or "flag-au".
func FromReaction(reaction string) (string, bool) {
	reaction = strings.TrimSpace(reaction)
	if country, ok := strings.CutPrefix(reaction, flagPrefix); ok {
		reaction = country
	}
	lang, ok := reactionLanguages[reaction]
	return lang, ok
}

// TopReactions returns the reactions offered in the configuration form.
func TopReactions() []string {
	out := make([]string, len(topReactions))
	copy(out, topReactions)
	return out
}

// SupportedLanguages returns every target language code, sorted.
func SupportedLanguages() []string {
	seen := map[string]bool{}
	for _, lang := range reactionLanguages {
		seen[lang] = true
	}
	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
