package detection

import (
	"strings"

	"golang.org/x/net/idna"
)

// confusables lists, for every lowercase ASCII letter, the characters an
// attacker can substitute for it. Entries longer than one rune are sequence
// substitutions and only apply in NormalizeSequences.
var confusables = map[rune][]string{
	'a': {"а", "ą", "ä", "à", "á", "â", "ã", "å", "ā", "ă", "ȧ", "ǎ", "ạ", "α", "@"},
	'b': {"ḃ", "ḅ", "ḇ", "Ƅ", "ƅ", "ɓ", "β"},
	'c': {"ç", "ć", "ĉ", "ċ", "č", "с", "ƈ", "¢"},
	'd': {"ḋ", "ḍ", "ḏ", "ḑ", "ḓ", "đ", "ɗ", "ð", "cl"},
	'e': {"е", "ё", "ę", "ë", "è", "é", "ê", "ē", "ĕ", "ė", "ě", "ẹ", "ε", "3"},
	'f': {"ƒ", "ḟ"},
	'g': {"ġ", "ǵ", "ğ", "ĝ", "ģ", "ǧ", "ɠ", "9"},
	'h': {"ḣ", "ḥ", "ḧ", "ḩ", "ḫ", "ĥ", "ħ", "ɦ", "һ"},
	'i': {"і", "ı", "ì", "í", "î", "ï", "ĩ", "ī", "ĭ", "į", "ǐ", "ị", "1", "|"},
	'j': {"ĵ", "ǰ", "ɉ", "ʝ", "ј"},
	'k': {"ķ", "ḱ", "ḳ", "ḵ", "ƙ", "ǩ", "κ"},
	'l': {"ł", "ĺ", "ļ", "ľ", "ḷ", "ḹ", "ḻ", "ḽ", "ӏ", "1", "|"},
	'm': {"ṁ", "ṃ", "ḿ", "ɱ", "rn"},
	'n': {"ń", "ņ", "ň", "ṅ", "ṇ", "ṉ", "ṋ", "ñ", "ŋ", "ɲ"},
	'o': {"о", "ö", "ò", "ó", "ô", "õ", "ō", "ŏ", "ȯ", "ǒ", "ọ", "ơ", "0", "θ", "ο"},
	'p': {"ṕ", "ṗ", "ρ", "þ", "р"},
	'q': {"ԛ"},
	'r': {"ŕ", "ŗ", "ř", "ṙ", "ṛ", "ṝ", "ṟ", "г"},
	's': {"ś", "ŝ", "ş", "š", "ṡ", "ṣ", "ș", "$", "5", "ѕ"},
	't': {"ţ", "ť", "ṫ", "ṭ", "ṯ", "ṱ", "ț", "ŧ", "+", "7"},
	'u': {"ù", "ú", "û", "ü", "ũ", "ū", "ŭ", "ů", "ű", "ų", "ǔ", "ụ", "ư", "μ"},
	'v': {"ṽ", "ṿ", "ν", "υ"},
	'w': {"ŵ", "ẁ", "ẃ", "ẅ", "ẇ", "ẉ", "ω", "vv"},
	'x': {"ẋ", "ẍ", "χ", "×", "х"},
	'y': {"ý", "ÿ", "ŷ", "ẏ", "ỳ", "ỵ", "ỷ", "ỹ", "γ", "ү", "у"},
	'z': {"ź", "ż", "ž", "ẑ", "ẓ", "ẕ", "ζ"},
}

const punycodePrefix = "xn--"

type sequenceSubstitution struct {
	from string
	to   string
}

// Normalizer maps confusable characters back to the ASCII letter they imitate.
// It is immutable once built and safe for concurrent use.
type Normalizer struct {
	reverse   map[rune]rune
	sequences []sequenceSubstitution
	replacer  *strings.Replacer
}

// NewNormalizer compiles the confusables table into a reverse lookup.
//
// Letters are visited in alphabetical order so that a character listed under
// two letters ('1' under i and l) resolves to the later one. ASCII letters
// themselves are never rewritten.
func NewNormalizer() *Normalizer {
	n := &Normalizer{reverse: make(map[rune]rune)}

	for base := 'a'; base <= 'z'; base++ {
		for _, glyph := range confusables[base] {
			runes := []rune(glyph)
			if len(runes) > 1 {
				n.sequences = append(n.sequences, sequenceSubstitution{from: glyph, to: string(base)})
				continue
			}
			r := runes[0]
			if r >= 'a' && r <= 'z' {
				continue
			}
			n.reverse[r] = base
		}
	}

	pairs := make([]string, 0, len(n.sequences)*2)
	for _, seq := range n.sequences {
		pairs = append(pairs, seq.from, seq.to)
	}
	n.replacer = strings.NewReplacer(pairs...)

	return n
}

// Normalize lowercases domain and replaces every confusable rune with its
// ASCII base letter
func (n *Normalizer) Normalize(domain string) string {
	lowered := strings.ToLower(domain)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if base, ok := n.reverse[r]; ok {
			b.WriteRune(base)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeSequences applies Normalize and then the multi-character
// substitutions such as "rn" -> "m"
func (n *Normalizer) NormalizeSequences(domain string) string {
	return n.replacer.Replace(n.Normalize(domain))
}

// DecodePunycode decodes an IDNA "xn--" domain to its Unicode form.
// ok is false when the domain is not punycode or cannot be decoded.
func (n *Normalizer) DecodePunycode(domain string) (decoded string, ok bool) {
	lowered := strings.ToLower(strings.TrimSpace(domain))
	if !strings.HasPrefix(lowered, punycodePrefix) {
		return "", false
	}

	decoded, err := idna.Punycode.ToUnicode(lowered)
	if err != nil || decoded == "" {
		return "", false
	}
	return decoded, true
}
