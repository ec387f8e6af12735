package latex

import "strings"

// Span is a run of plain text with its accumulated formatting flags.
// Flags compose: text nested inside several markers carries all of them.
type Span struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Math      bool
	Hyperlink string // target address when inside \href
}

// The candidate inline markers, in declaration order. Order is the
// deterministic tie-break when two markers start at the same position.
type markerKind int

const (
	markBold markerKind = iota
	markItalic
	markUnderline
	markHref
	markMath
)

var markers = []struct {
	open string
	kind markerKind
}{
	{`\textbf{`, markBold},
	{`\textit{`, markItalic},
	{`\underline{`, markUnderline},
	{`\href{`, markHref},
	{`$`, markMath},
}

// Tokenize scans text for inline formatting markers and returns spans
// covering the whole input with no gaps and no overlaps. At every step the
// earliest-starting successful match wins, regardless of marker kind.
func Tokenize(text string) []Span {
	return tokenize(text, Span{})
}

// match is one resolved inline construct within the remaining text.
type match struct {
	start int    // offset of the marker
	end   int    // offset just past the full construct
	inner string // captured inner text
	url   string // \href target, if any
	kind  markerKind
}

func tokenize(text string, base Span) []Span {
	var spans []Span
	rest := text

	for len(rest) > 0 {
		m, ok := findEarliest(rest)
		if !ok {
			spans = appendLeaf(spans, rest, base)
			break
		}

		spans = appendLeaf(spans, rest[:m.start], base)

		flagged := base
		switch m.kind {
		case markBold:
			flagged.Bold = true
		case markItalic:
			flagged.Italic = true
		case markUnderline:
			flagged.Underline = true
		case markHref:
			flagged.Hyperlink = m.url
		case markMath:
			flagged.Math = true
		}

		if m.kind == markMath {
			// Math content is taken verbatim; no markers nest inside it.
			spans = appendLeaf(spans, m.inner, flagged)
		} else {
			spans = append(spans, tokenize(m.inner, flagged)...)
		}

		rest = rest[m.end:]
	}

	return spans
}

// appendLeaf emits one unescaped span, dropping empties.
func appendLeaf(spans []Span, raw string, base Span) []Span {
	if raw == "" {
		return spans
	}
	leaf := base
	leaf.Text = Unescape(raw)
	return append(spans, leaf)
}

// findEarliest locates the earliest-starting marker whose full construct
// parses. A marker occurrence that never closes is skipped, letting a
// later occurrence or a different marker win, as the original ordered
// pattern scan did.
func findEarliest(text string) (match, bool) {
	var best match
	found := false

	for _, mk := range markers {
		m, ok := findMarker(text, mk.open, mk.kind)
		if !ok {
			continue
		}
		if !found || m.start < best.start {
			best = m
			found = true
		}
	}

	return best, found
}

func findMarker(text, open string, kind markerKind) (match, bool) {
	from := 0
	for from <= len(text)-len(open) {
		start := indexUnescaped(text[from:], open)
		if start < 0 {
			return match{}, false
		}
		start += from

		m, ok := parseConstruct(text, start, open, kind)
		if ok {
			return m, true
		}
		from = start + len(open)
	}
	return match{}, false
}

func parseConstruct(text string, start int, open string, kind markerKind) (match, bool) {
	body := start + len(open)

	if kind == markMath {
		rel := indexUnescaped(text[body:], "$")
		if rel < 0 {
			return match{}, false
		}
		return match{start: start, end: body + rel + 1, inner: text[body : body+rel], kind: kind}, true
	}

	inner, after, ok := balancedBraces(text, body)
	if !ok {
		return match{}, false
	}

	if kind != markHref {
		return match{start: start, end: after, inner: inner, kind: kind}, true
	}

	// \href carries two groups: {url}{text}.
	if after >= len(text) || text[after] != '{' {
		return match{}, false
	}
	linkText, end, ok := balancedBraces(text, after+1)
	if !ok {
		return match{}, false
	}
	return match{start: start, end: end, inner: linkText, url: inner, kind: kind}, true
}

// balancedBraces captures from pos (just past an opening brace) up to the
// matching close, honoring nested and escaped braces. Returns the inner
// text and the offset just past the closing brace.
func balancedBraces(text string, pos int) (string, int, bool) {
	depth := 1
	for i := pos; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++ // skip the escaped character
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[pos:i], i + 1, true
			}
		}
	}
	return "", 0, false
}

// indexUnescaped finds the first occurrence of sub not preceded by an odd
// run of backslashes. For commands starting with a backslash the check
// guards against \\textbf-style literal backslash sequences; for "$" it
// keeps escaped \$ out of math mode.
func indexUnescaped(text, sub string) int {
	from := 0
	for {
		idx := strings.Index(text[from:], sub)
		if idx < 0 {
			return -1
		}
		idx += from

		backslashes := 0
		for j := idx - 1; j >= 0 && text[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return idx
		}
		from = idx + 1
	}
}
