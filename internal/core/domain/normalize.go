package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics убирает диакритику: "Převodovka" -> "Prevodovka".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeKey превращает отображаемое имя в ASCII-идентификатор: без
// диакритики, в нижнем регистре, любые серии небуквенно-цифровых символов
// заменяются на sep.
func NormalizeKey(s string, sep rune) string {
	s = strings.ToLower(StripDiacritics(s))

	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Slug - форма имени для пути детальной страницы ("Škoda" -> "skoda").
func Slug(s string) string {
	return NormalizeKey(s, '-')
}
