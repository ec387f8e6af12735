// Package latex implements the two directional transcoders between a
// restricted LaTeX subset and the wordml document model: an inline run
// tokenizer, a block classifier with structural reconstructors (decoder),
// and a markup encoder with preamble and bibliography handling.
package latex

import "strings"

// escaper rewrites LaTeX special characters in one simultaneous pass, so
// the backslashes it emits are never themselves re-escaped.
var escaper = strings.NewReplacer(
	"\\", `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"$", `\$`,
	"&", `\&`,
	"%", `\%`,
	"#", `\#`,
	"_", `\_`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// unescaper is the inverse. Long-form commands come first so their leading
// backslash-brace sequences are not consumed by the short escapes.
var unescaper = strings.NewReplacer(
	`\textbackslash{}`, "\\",
	`\textasciitilde{}`, "~",
	`\textasciicircum{}`, "^",
	`\{`, "{",
	`\}`, "}",
	`\$`, "$",
	`\&`, "&",
	`\%`, "%",
	`\#`, "#",
	`\_`, "_",
)

// Escape makes plain text safe for LaTeX output.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Unescape turns escaped LaTeX source text back into plain text.
func Unescape(text string) string {
	return unescaper.Replace(text)
}
