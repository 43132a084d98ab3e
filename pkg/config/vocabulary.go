package config

import (
	"strings"
	"unicode"

	"github.com/matzehuels/autoflex/pkg/geom"
)

// Vocabulary holds the keyword sets and raw-type table used to recognise
// element intent from names. Tokens are matched case-insensitively.
type Vocabulary struct {
	DecorativeKeywords  []string `toml:"decorative_keywords" json:"decorative_keywords"`
	InteractiveKeywords []string `toml:"interactive_keywords" json:"interactive_keywords"`
	StretchableKeywords []string `toml:"stretchable_keywords" json:"stretchable_keywords"`
	IconKeywords        []string `toml:"icon_keywords" json:"icon_keywords"`
	// TypeCategories maps raw host node types (FRAME, TEXT, ...) to categories.
	TypeCategories map[string]geom.ElementType `toml:"type_categories" json:"type_categories"`
}

// DefaultVocabulary returns the built-in keyword sets.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		DecorativeKeywords: []string{
			"divider", "separator", "background", "bg", "decoration", "decor",
			"ornament", "shadow", "overlay", "pattern",
		},
		InteractiveKeywords: []string{
			"button", "btn", "input", "field", "toggle", "switch", "checkbox",
			"radio", "link", "tab", "slider", "dropdown", "select", "chip",
		},
		StretchableKeywords: []string{
			"input", "field", "search", "textfield", "bar", "banner", "header",
			"footer", "divider", "container", "row", "fill",
		},
		IconKeywords: []string{"icon", "ico", "glyph", "avatar"},
		TypeCategories: map[string]geom.ElementType{
			"frame":             geom.TypeContainer,
			"group":             geom.TypeContainer,
			"component":         geom.TypeContainer,
			"component_set":     geom.TypeContainer,
			"instance":          geom.TypeContainer,
			"section":           geom.TypeContainer,
			"text":              geom.TypeText,
			"rectangle":         geom.TypeShape,
			"ellipse":           geom.TypeShape,
			"polygon":           geom.TypeShape,
			"star":              geom.TypeShape,
			"line":              geom.TypeDecorative,
			"vector":            geom.TypeVector,
			"boolean_operation": geom.TypeVector,
		},
	}
}

// Validate rejects category tables that map to unknown element types.
func (v Vocabulary) Validate() error {
	for raw, t := range v.TypeCategories {
		if !t.Valid() {
			return invalid("vocabulary.type_categories[" + raw + "] is not a known element type: " + string(t))
		}
	}
	return nil
}

// Category resolves a raw host type name. Known category names are accepted
// as-is; otherwise the lookup goes through TypeCategories.
func (v Vocabulary) Category(raw string) (geom.ElementType, bool) {
	if t, ok := geom.ParseElementType(raw); ok {
		return t, true
	}
	key := strings.ToLower(strings.TrimSpace(raw))
	for k, t := range v.TypeCategories {
		if strings.ToLower(k) == key {
			return t, true
		}
	}
	return "", false
}

// IsDecorative reports whether e is decorative by type or by name.
func (v Vocabulary) IsDecorative(e geom.Element) bool {
	return e.Type == geom.TypeDecorative || Matches(e.Name, v.DecorativeKeywords)
}

// IsInteractive reports whether e is an interactive control by type or by name.
func (v Vocabulary) IsInteractive(e geom.Element) bool {
	return e.Type == geom.TypeInteractive || Matches(e.Name, v.InteractiveKeywords)
}

// IsStretchable reports whether e's name suggests it should stretch.
func (v Vocabulary) IsStretchable(e geom.Element) bool {
	return Matches(e.Name, v.StretchableKeywords)
}

// IsIcon reports whether e looks like an icon: vector artwork or an icon name.
func (v Vocabulary) IsIcon(e geom.Element) bool {
	return e.Type == geom.TypeVector || Matches(e.Name, v.IconKeywords)
}

// Matches reports whether any keyword occurs as a token of name. Keywords of
// four or more letters also match inside compound words ("mainsearchfield",
// "TextField"), but not as the stem of a derived word: "Selection" and
// "Blinking" match neither "select" nor "link".
func Matches(name string, keywords []string) bool {
	if name == "" || len(keywords) == 0 {
		return false
	}
	tokens := Tokens(name)
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		for i, t := range tokens {
			if t == kw || (i > 0 && tokens[i-1]+t == kw) {
				return true
			}
			if len(kw) >= 4 && compound(t, kw) {
				return true
			}
		}
	}
	return false
}

// suffixes are word endings that turn a keyword into a different word.
var suffixes = map[string]bool{
	"ed": true, "er": true, "ers": true, "ing": true, "ings": true,
	"ion": true, "ions": true, "ive": true, "ity": true, "able": true,
	"ably": true, "age": true, "ment": true, "ments": true, "ness": true,
	"ure": true, "ures": true, "ation": true,
}

// compound reports whether kw occurs in word as a whole part of a compound:
// the text around it is empty or long enough to be a word of its own, and
// a trailing plural is allowed.
func compound(word, kw string) bool {
	for off := 0; off < len(word); {
		i := strings.Index(word[off:], kw)
		if i < 0 {
			return false
		}
		i += off
		before, after := word[:i], word[i+len(kw):]
		if len(before) == 0 || len(before) >= 3 {
			switch {
			case after == "", after == "s", after == "es":
				return true
			case len(after) >= 3 && !suffixes[after]:
				return true
			}
		}
		off = i + 1
	}
	return false
}

// Tokens splits an element name into lower-case word tokens. Words are split
// on non-alphanumeric runes and camelCase boundaries; purely numeric tokens
// are dropped so "Card 1" and "Card 2" share the token "card".
func Tokens(name string) []string {
	var (
		tokens []string
		cur    []rune
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		tok := strings.ToLower(string(cur))
		cur = cur[:0]
		if strings.IndexFunc(tok, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
			return
		}
		tokens = append(tokens, tok)
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return tokens
}
