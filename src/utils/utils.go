package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	zeroWidthPattern  = regexp.MustCompile("[\u200B-\u200F\uFEFF]")
	whitespacePattern = regexp.MustCompile(`\s+`)
	folder            = cases.Fold()
	titleCaser        = cases.Title(language.Russian)
)

// NormalizeText produces the canonical form used for hashing and comparisons:
// entities decoded, NFKC, zero-width runes as spaces, accents removed, case folded
// and whitespace collapsed.
func NormalizeText(text string) string {
	text = html.UnescapeString(text)
	text = norm.NFKC.String(text)
	text = zeroWidthPattern.ReplaceAllString(text, " ")

	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripAccents, text)
	if err == nil {
		text = stripped
	}

	text = folder.String(text)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// CollapseSpaces trims the text and squeezes inner whitespace runs into one space.
func CollapseSpaces(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// TitleName turns "иванов иван иванович" into "Иванов Иван Иванович".
func TitleName(name string) string {
	return titleCaser.String(CollapseSpaces(name))
}

// ShortName formats "Surname Name Patronymic" as "Surname N. P.", shorter names are kept.
func ShortName(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 3 {
		return CollapseSpaces(name)
	}
	first := []rune(parts[1])
	patronymic := []rune(parts[2])
	return parts[0] + " " + string(first[0]) + ". " + string(patronymic[0]) + "."
}

// ContainsFolded reports whether substr is within s ignoring case and accents.
func ContainsFolded(s, substr string) bool {
	return strings.Contains(NormalizeText(s), NormalizeText(substr))
}
