package detection

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Brand is a frequently impersonated organization and its official domains
type Brand struct {
	Name    string   // lowercase keyword, may contain spaces ("bank of america")
	Domains []string // official domains, the first one is canonical
}

// DefaultBrands is the built-in legitimate-domain registry.
// Order matters: the first matching brand is the one reported.
var DefaultBrands = []Brand{
	{Name: "paypal", Domains: []string{"paypal.com", "paypal.me"}},
	{Name: "amazon", Domains: []string{"amazon.com", "amazon.co.uk", "amazon.in", "amazonaws.com"}},
	{Name: "apple", Domains: []string{"apple.com", "icloud.com"}},
	{Name: "microsoft", Domains: []string{"microsoft.com", "outlook.com", "live.com", "hotmail.com", "office.com"}},
	{Name: "google", Domains: []string{"google.com", "gmail.com", "googlemail.com", "youtube.com"}},
	{Name: "netflix", Domains: []string{"netflix.com"}},
	{Name: "facebook", Domains: []string{"facebook.com", "fb.com", "meta.com"}},
	{Name: "instagram", Domains: []string{"instagram.com"}},
	{Name: "linkedin", Domains: []string{"linkedin.com"}},
	{Name: "twitter", Domains: []string{"twitter.com", "x.com"}},
	{Name: "dropbox", Domains: []string{"dropbox.com"}},
	{Name: "spotify", Domains: []string{"spotify.com"}},
	{Name: "bank of america", Domains: []string{"bankofamerica.com"}},
	{Name: "chase", Domains: []string{"chase.com"}},
	{Name: "wells fargo", Domains: []string{"wellsfargo.com"}},
	{Name: "payoneer", Domains: []string{"payoneer.com"}},
}

type registeredBrand struct {
	name        string
	compactName string // name without spaces, as it would appear in a domain
	displayName string
	domains     map[string]struct{}
}

// BrandRegistry is the compiled, read-only view of the brand table
type BrandRegistry struct {
	brands       []registeredBrand
	official     map[string]struct{}
	typoVariants map[string]int // first-label variant -> brand index
}

// NewBrandRegistry compiles brands into lookup sets and precomputes every
// typosquatting variant of every official domain label
func NewBrandRegistry(brands []Brand) *BrandRegistry {
	title := cases.Title(language.English)

	r := &BrandRegistry{
		brands:       make([]registeredBrand, 0, len(brands)),
		official:     make(map[string]struct{}),
		typoVariants: make(map[string]int),
	}

	for i, b := range brands {
		name := strings.ToLower(strings.TrimSpace(b.Name))
		rb := registeredBrand{
			name:        name,
			compactName: strings.ReplaceAll(name, " ", ""),
			displayName: title.String(name),
			domains:     make(map[string]struct{}, len(b.Domains)),
		}
		for _, d := range b.Domains {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				continue
			}
			rb.domains[d] = struct{}{}
			r.official[d] = struct{}{}

			for _, variant := range typoVariants(firstLabel(d)) {
				if _, seen := r.typoVariants[variant]; !seen {
					r.typoVariants[variant] = i
				}
			}
		}
		r.brands = append(r.brands, rb)
	}

	return r
}

// IsOfficial reports whether domain belongs to any registered brand
func (r *BrandRegistry) IsOfficial(domain string) bool {
	_, ok := r.official[domain]
	return ok
}

// MatchTyposquat returns the brand whose official label has label as a
// mechanical variant
func (r *BrandRegistry) MatchTyposquat(label string) (string, bool) {
	if label == "" {
		return "", false
	}
	i, ok := r.typoVariants[label]
	if !ok {
		return "", false
	}
	return r.brands[i].name, true
}

// MatchLookalike returns the first brand that normalized equals an official
// domain of, or whose compact name normalized contains
func (r *BrandRegistry) MatchLookalike(normalized string) (string, bool) {
	if normalized == "" {
		return "", false
	}
	for _, b := range r.brands {
		if _, ok := b.domains[normalized]; ok {
			return b.name, true
		}
		if strings.Contains(normalized, b.compactName) {
			return b.name, true
		}
	}
	return "", false
}

// MatchImpersonation returns the display name of the first brand whose
// keyword appears in one of the texts while domain is not one of its
// official domains
func (r *BrandRegistry) MatchImpersonation(domain string, texts ...string) (string, bool) {
	lowered := make([]string, len(texts))
	for i, t := range texts {
		lowered[i] = strings.ToLower(t)
	}

	for _, b := range r.brands {
		if !mentions(lowered, b.name) {
			continue
		}
		if _, official := b.domains[domain]; !official {
			return b.displayName, true
		}
	}
	return "", false
}

func mentions(texts []string, keyword string) bool {
	for _, t := range texts {
		if strings.Contains(t, keyword) {
			return true
		}
	}
	return false
}

// typoVariants derives the mechanical misspellings of an official label
func typoVariants(label string) []string {
	if label == "" {
		return nil
	}
	variants := []string{
		label + "s",
		label[:len(label)-1],
		label + "l",
		strings.ReplaceAll(label, "l", "1"),
		strings.ReplaceAll(label, "o", "0"),
		strings.ReplaceAll(label, "i", "1"),
		label + "-security",
		label + "-support",
		label + "-verify",
		label + "-login",
		"secure-" + label,
		"login-" + label,
	}

	out := variants[:0]
	for _, v := range variants {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
