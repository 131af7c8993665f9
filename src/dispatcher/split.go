package dispatcher

import "strings"

const MESSAGE_LIMIT = 4096

// SplitMessage cuts text into parts of at most limit runes, on line breaks where possible.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, strings.TrimRight(string(current), "\n"))
			current = current[:0]
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		if len(current)+len(runes) > limit {
			flush()
		}
		for len(runes) > limit {
			cut := markupSafeCut(runes, limit)
			parts = append(parts, string(runes[:cut]))
			runes = runes[cut:]
		}
		current = append(current, runes...)
	}
	flush()
	return parts
}

// MAX_ENTITY_LENGTH bounds named and numeric HTML entities such as "&quot;" or "&#128512;".
const MAX_ENTITY_LENGTH = 10

// markupSafeCut moves a cut at limit back so that it never splits an HTML tag or entity.
func markupSafeCut(runes []rune, limit int) int {
	cut := limit
	for i := cut - 1; i >= 0; i-- {
		if runes[i] == '>' {
			break
		}
		if runes[i] == '<' {
			cut = i
			break
		}
	}
	for i := cut - 1; i >= 0 && cut-i <= MAX_ENTITY_LENGTH; i-- {
		if runes[i] == ';' || runes[i] == ' ' {
			break
		}
		if runes[i] == '&' {
			cut = i
			break
		}
	}
	if cut == 0 {
		return limit
	}
	return cut
}
