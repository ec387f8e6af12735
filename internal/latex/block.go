package latex

import (
	"regexp"
	"strings"
)

// BlockKind is the closed set of structural classifications. Every block
// gets exactly one kind; reconstruction is total over this set.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
	KindTable
	KindFigure
	KindList
	KindCentered
)

// Block is one contiguous unit of markup source, classified once and never
// mutated afterwards.
type Block struct {
	Kind    BlockKind
	Raw     string
	Level   int  // heading depth 1-3, only for KindHeading
	Ordered bool // enumerate vs itemize, only for KindList
}

var (
	documentBodyRe = regexp.MustCompile(`(?s)\\begin\{document\}(.*?)\\end\{document\}`)
	blockSplitRe   = regexp.MustCompile(`\n\s*\n`)
)

// DocumentBody narrows raw markup to the rendered body. Detection is best
// effort: without an explicit document environment the whole text is the
// body.
func DocumentBody(raw string) string {
	if m := documentBodyRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// SplitBlocks breaks a body into classified blocks on blank-line
// boundaries, dropping blocks that are empty after trimming.
func SplitBlocks(body string) []Block {
	var blocks []Block
	for _, chunk := range blockSplitRe.Split(body, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		blocks = append(blocks, classify(chunk))
	}
	return blocks
}

// classify picks the single kind for a block. Heading checks run first,
// most-nested keyword first, so \subsubsection never misclassifies as
// \section even though the shorter keywords are substrings of it.
func classify(raw string) Block {
	switch {
	case strings.HasPrefix(raw, `\subsubsection`):
		return Block{Kind: KindHeading, Raw: raw, Level: 3}
	case strings.HasPrefix(raw, `\subsection`):
		return Block{Kind: KindHeading, Raw: raw, Level: 2}
	case strings.HasPrefix(raw, `\section`):
		return Block{Kind: KindHeading, Raw: raw, Level: 1}
	case strings.Contains(raw, `\begin{table}`) || strings.Contains(raw, `\begin{tabular}`):
		return Block{Kind: KindTable, Raw: raw}
	case strings.Contains(raw, `\begin{figure}`) || strings.Contains(raw, `\includegraphics`):
		return Block{Kind: KindFigure, Raw: raw}
	case strings.Contains(raw, `\begin{enumerate}`):
		return Block{Kind: KindList, Raw: raw, Ordered: true}
	case strings.Contains(raw, `\begin{itemize}`):
		return Block{Kind: KindList, Raw: raw}
	case strings.Contains(raw, `\begin{center}`):
		return Block{Kind: KindCentered, Raw: raw}
	default:
		return Block{Kind: KindParagraph, Raw: raw}
	}
}
