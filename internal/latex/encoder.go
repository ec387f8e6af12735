package latex

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doctex/internal/config"
	"github.com/nerdneilsfield/go-doctex/internal/wordml"
)

// Encoder turns a structured document into LaTeX source. One Encoder serves
// one conversion and accumulates its bibliography entries; nothing is
// shared across calls.
type Encoder struct {
	opts   config.ConversionOptions
	logger *zap.Logger

	bib []string
}

// NewEncoder creates an encoder for a single conversion.
func NewEncoder(opts config.ConversionOptions, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{opts: opts, logger: logger}
}

// Bibliography returns the entries collected during Encode, in document
// order.
func (e *Encoder) Bibliography() []string {
	return e.bib
}

// Encode walks the document body in order and assembles the LaTeX
// artifact. bibName is the base name referenced by the \bibliography
// directive when entries are found.
func (e *Encoder) Encode(doc *wordml.Document, bibName string) string {
	var chunks []string

	if e.opts.IncludePreamble && e.opts.StandaloneDocument {
		chunks = append(chunks, e.preamble())
	}
	if e.opts.StandaloneDocument {
		chunks = append(chunks, "\\begin{document}\n")
	}

	chunks = append(chunks, e.body(doc, bibName))

	if e.opts.StandaloneDocument {
		chunks = append(chunks, "\n\\end{document}")
	}

	return strings.Join(chunks, "\n")
}

// preamble emits package declarations in a fixed order; user packages come
// last, verbatim and in declared order.
func (e *Encoder) preamble() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("\\documentclass[%s]{%s}\n", e.opts.FontSize, e.opts.DocumentClass))

	if e.opts.UnicodeSupport {
		lines = append(lines, "% Support for non-english characters")
		lines = append(lines, "\\usepackage[T1]{fontenc}")
		lines = append(lines, "\\usepackage[utf8]{inputenc}")
	}

	lines = append(lines, fmt.Sprintf("\\usepackage[%s]{geometry}", e.opts.PageMargins))

	if e.opts.PreserveImages {
		lines = append(lines, "\\usepackage{graphicx}")
		lines = append(lines, "\\graphicspath{{./images/}}")
	}

	lines = append(lines, "\\usepackage{hyperref}")
	lines = append(lines, "\\hypersetup{colorlinks=true, linkcolor=blue, urlcolor=cyan}")

	lines = append(lines, "\\usepackage{amsmath, amssymb, amsfonts}")
	lines = append(lines, "\\usepackage{booktabs} % For nice professional tables")
	lines = append(lines, "\\usepackage{longtable} % In case tables are huge")
	lines = append(lines, "\\usepackage{array}")

	if e.opts.LineSpacing != config.SpacingSingle {
		lines = append(lines, "\\usepackage{setspace}")
		switch e.opts.LineSpacing {
		case config.SpacingOneHalf:
			lines = append(lines, "\\onehalfspacing")
		case config.SpacingDouble:
			lines = append(lines, "\\doublespacing")
		}
	}

	if e.opts.ExtractBibliography {
		lines = append(lines, "\\usepackage{natbib}")
		lines = append(lines, fmt.Sprintf("\\bibliographystyle{%s}", e.opts.BibliographyStyle))
	}

	for _, pkg := range e.opts.CustomPackages {
		lines = append(lines, fmt.Sprintf("\\usepackage{%s}", pkg))
	}

	return strings.Join(lines, "\n") + "\n"
}

func (e *Encoder) body(doc *wordml.Document, bibName string) string {
	var parts []string

	for _, el := range doc.Elements() {
		var tex string
		switch v := el.(type) {
		case *wordml.Paragraph:
			tex = e.paragraph(v, bibName)
		case *wordml.Table:
			tex = e.table(v)
		}
		if tex != "" {
			parts = append(parts, tex)
		}
	}

	return strings.Join(parts, "\n\n")
}

func (e *Encoder) paragraph(p *wordml.Paragraph, bibName string) string {
	if strings.TrimSpace(p.Text()) == "" {
		return ""
	}

	if strings.HasPrefix(p.Style, "Heading") {
		return e.heading(p)
	}

	if p.Style == "Bibliography" {
		return e.collectBibliography(p, bibName)
	}

	var pieces []string
	for _, run := range p.Runs {
		txt := Escape(run.Text)

		// Fixed nesting order: bold, then italic, then underline; a link
		// wraps one level further outward.
		if run.Bold {
			txt = "\\textbf{" + txt + "}"
		}
		if run.Italic {
			txt = "\\textit{" + txt + "}"
		}
		if run.Underline {
			txt = "\\underline{" + txt + "}"
		}
		if run.Hyperlink != "" {
			txt = "\\href{" + run.Hyperlink + "}{" + txt + "}"
		}

		pieces = append(pieces, txt)
	}

	text := strings.Join(pieces, "")

	switch p.Alignment {
	case wordml.AlignCenter:
		text = "\\begin{center}\n" + text + "\n\\end{center}"
	case wordml.AlignRight:
		text = "\\begin{flushright}\n" + text + "\n\\end{flushright}"
	}

	return text
}

// heading maps style depth to sectioning commands. Depths past four
// collapse into \subparagraph, the deepest level the target markup offers.
func (e *Encoder) heading(p *wordml.Paragraph) string {
	txt := Escape(p.Text())
	depth := headingDepth(p.Style)

	prefix := ""
	if depth == 1 && (e.opts.DocumentClass == "report" || e.opts.DocumentClass == "thesis") {
		// Multi-chapter classes start top-level sections on a fresh page.
		prefix = "\\clearpage\n"
	}

	switch depth {
	case 1:
		return prefix + "\\section{" + txt + "}"
	case 2:
		return "\\subsection{" + txt + "}"
	case 3:
		return "\\subsubsection{" + txt + "}"
	case 4:
		return "\\paragraph{" + txt + "}"
	default:
		return "\\subparagraph{" + txt + "}"
	}
}

// headingDepth pulls the numeric depth out of a heading style name such as
// "Heading 1" or "Heading2". Unparseable names count as deepest.
func headingDepth(style string) int {
	digits := strings.TrimSpace(strings.TrimPrefix(style, "Heading"))
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 9
	}
	return n
}

func (e *Encoder) table(t *wordml.Table) string {
	if len(t.Cells) == 0 {
		return ""
	}

	cols := len(t.Cells[0])

	var bits []string
	bits = append(bits, "\\begin{table}[h!]")
	bits = append(bits, "\\centering")

	colDef := "|" + strings.Repeat("c|", cols)
	bits = append(bits, fmt.Sprintf("\\begin{tabular}{%s}", colDef))
	bits = append(bits, "\\toprule")

	for i, row := range t.Cells {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, Escape(strings.TrimSpace(cell)))
		}
		bits = append(bits, strings.Join(cells, " & ")+" \\\\")

		if i == 0 {
			bits = append(bits, "\\midrule")
		} else {
			bits = append(bits, "\\hline")
		}
	}

	bits = append(bits, "\\bottomrule")
	bits = append(bits, "\\end{tabular}")
	// Captions are not recoverable from the source object model.
	bits = append(bits, "\\caption{Converted table}")
	bits = append(bits, "\\end{table}")

	return strings.Join(bits, "\n")
}

// collectBibliography accumulates a Bibliography-styled paragraph and, for
// the first entry only, emits the \bibliography directive in its place.
func (e *Encoder) collectBibliography(p *wordml.Paragraph, bibName string) string {
	e.bib = append(e.bib, p.Text())
	if len(e.bib) == 1 && e.opts.ExtractBibliography {
		return "\\bibliography{" + bibName + "}"
	}
	return ""
}
