package latex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-doctex/internal/config"
	"github.com/nerdneilsfield/go-doctex/internal/wordml"
)

func encodeDoc(t *testing.T, opts config.ConversionOptions, build func(doc *wordml.Document)) string {
	t.Helper()
	doc := wordml.New()
	if build != nil {
		build(doc)
	}
	return NewEncoder(opts, nil).Encode(doc, "refs")
}

// requireOrder asserts that every needle occurs in src, each one after the
// previous.
func requireOrder(t *testing.T, src string, needles ...string) {
	t.Helper()
	last := -1
	for _, n := range needles {
		idx := strings.Index(src, n)
		require.GreaterOrEqual(t, idx, 0, "missing %q", n)
		require.Greater(t, idx, last, "%q out of order", n)
		last = idx
	}
}

func TestEncodePreambleOrder(t *testing.T) {
	out := encodeDoc(t, config.Default(), nil)

	requireOrder(t, out,
		`\documentclass[12pt]{article}`,
		`\usepackage[T1]{fontenc}`,
		`\usepackage[utf8]{inputenc}`,
		`\usepackage[margin=1in]{geometry}`,
		`\usepackage{graphicx}`,
		`\graphicspath{{./images/}}`,
		`\usepackage{hyperref}`,
		`\hypersetup{colorlinks=true, linkcolor=blue, urlcolor=cyan}`,
		`\usepackage{amsmath, amssymb, amsfonts}`,
		`\usepackage{booktabs}`,
		`\usepackage{longtable}`,
		`\usepackage{array}`,
		`\begin{document}`,
		`\end{document}`,
	)

	// Defaults: single spacing and no bibliography extraction.
	assert.NotContains(t, out, `\usepackage{setspace}`)
	assert.NotContains(t, out, `\usepackage{natbib}`)
}

func TestEncodePreambleOptions(t *testing.T) {
	opts := config.Default()
	opts.UnicodeSupport = false
	opts.PreserveImages = false
	opts.LineSpacing = config.SpacingDouble
	opts.ExtractBibliography = true
	opts.BibliographyStyle = "ieeetr"
	opts.CustomPackages = []string{"tikz", "minted"}

	out := encodeDoc(t, opts, nil)

	assert.NotContains(t, out, "inputenc")
	assert.NotContains(t, out, "graphicx")
	requireOrder(t, out,
		`\usepackage{setspace}`,
		`\doublespacing`,
		`\usepackage{natbib}`,
		`\bibliographystyle{ieeetr}`,
		`\usepackage{tikz}`,
		`\usepackage{minted}`,
		`\begin{document}`,
	)

	opts.LineSpacing = config.SpacingOneHalf
	assert.Contains(t, encodeDoc(t, opts, nil), `\onehalfspacing`)
}

func TestEncodeFragment(t *testing.T) {
	opts := config.Default()
	opts.StandaloneDocument = false

	out := encodeDoc(t, opts, func(doc *wordml.Document) {
		doc.AddTextParagraph("just text", "")
	})

	assert.Equal(t, "just text", out)
}

func TestEncodeBodyOnly(t *testing.T) {
	opts := config.Default()
	opts.IncludePreamble = false

	out := encodeDoc(t, opts, func(doc *wordml.Document) {
		doc.AddTextParagraph("body", "")
	})

	assert.NotContains(t, out, `\documentclass`)
	requireOrder(t, out, `\begin{document}`, "body", `\end{document}`)
}

func TestEncodeRunWrappingOrder(t *testing.T) {
	out := encodeDoc(t, config.Default(), func(doc *wordml.Document) {
		run := doc.AddParagraph("").AddRun("all")
		run.Bold = true
		run.Italic = true
		run.Underline = true
		run.Hyperlink = "https://example.com"
	})

	assert.Contains(t, out, `\href{https://example.com}{\underline{\textit{\textbf{all}}}}`)
}

func TestEncodeAlignment(t *testing.T) {
	t.Run("Center", func(t *testing.T) {
		out := encodeDoc(t, config.Default(), func(doc *wordml.Document) {
			doc.AddTextParagraph("centered", "").Alignment = wordml.AlignCenter
		})
		assert.Contains(t, out, "\\begin{center}\ncentered\n\\end{center}")
	})

	t.Run("Right", func(t *testing.T) {
		out := encodeDoc(t, config.Default(), func(doc *wordml.Document) {
			doc.AddTextParagraph("pushed", "").Alignment = wordml.AlignRight
		})
		assert.Contains(t, out, "\\begin{flushright}\npushed\n\\end{flushright}")
	})

	t.Run("LeftUnwrapped", func(t *testing.T) {
		out := encodeDoc(t, config.Default(), func(doc *wordml.Document) {
			doc.AddTextParagraph("plain", "").Alignment = wordml.AlignLeft
		})
		assert.NotContains(t, out, "center")
		assert.NotContains(t, out, "flushright")
	})
}

func TestEncodeHeadings(t *testing.T) {
	out := encodeDoc(t, config.Default(), func(doc *wordml.Document) {
		doc.AddHeading("One", 1)
		doc.AddHeading("Two", 2)
		doc.AddHeading("Three", 3)
		doc.AddHeading("Four", 4)
		doc.AddHeading("Five", 5)
	})

	requireOrder(t, out,
		`\section{One}`,
		`\subsection{Two}`,
		`\subsubsection{Three}`,
		`\paragraph{Four}`,
		`\subparagraph{Five}`,
	)
	assert.NotContains(t, out, `\clearpage`)
}

func TestEncodeHeadingClearpage(t *testing.T) {
	opts := config.Default()
	opts.DocumentClass = "report"

	out := encodeDoc(t, opts, func(doc *wordml.Document) {
		doc.AddHeading("Chapter-level", 1)
		doc.AddHeading("Nested", 2)
	})

	assert.Contains(t, out, "\\clearpage\n\\section{Chapter-level}")
	assert.NotContains(t, out, "\\clearpage\n\\subsection")
}

func TestEncodeHeadingUnparseableDepth(t *testing.T) {
	out := encodeDoc(t, config.Default(), func(doc *wordml.Document) {
		doc.AddTextParagraph("odd", "Heading X")
	})
	assert.Contains(t, out, `\subparagraph{odd}`)
}

func TestEncodeEmptyParagraphSkipped(t *testing.T) {
	opts := config.Default()
	opts.IncludePreamble = false
	opts.StandaloneDocument = false

	out := encodeDoc(t, opts, func(doc *wordml.Document) {
		doc.AddTextParagraph("   ", "")
		doc.AddTextParagraph("kept", "")
	})

	assert.Equal(t, "kept", out)
}

func TestEncodeEscapesSpecials(t *testing.T) {
	out := encodeDoc(t, config.Default(), func(doc *wordml.Document) {
		doc.AddTextParagraph("50% of R&D costs $100", "")
	})
	assert.Contains(t, out, `50\% of R\&D costs \$100`)
}

func TestEncodeTable(t *testing.T) {
	out := encodeDoc(t, config.Default(), func(doc *wordml.Document) {
		tab := doc.AddTable(2, 2)
		tab.SetCell(0, 0, "Name")
		tab.SetCell(0, 1, "Age")
		tab.SetCell(1, 0, "Alice")
		tab.SetCell(1, 1, "30")
	})

	want := strings.Join([]string{
		`\begin{table}[h!]`,
		`\centering`,
		`\begin{tabular}{|c|c|}`,
		`\toprule`,
		`Name & Age \\`,
		`\midrule`,
		`Alice & 30 \\`,
		`\hline`,
		`\bottomrule`,
		`\end{tabular}`,
		`\caption{Converted table}`,
		`\end{table}`,
	}, "\n")
	assert.Contains(t, out, want)
}

func TestEncodeEmptyTableOmitted(t *testing.T) {
	opts := config.Default()
	opts.IncludePreamble = false
	opts.StandaloneDocument = false

	out := encodeDoc(t, opts, func(doc *wordml.Document) {
		doc.AddTable(0, 0)
		doc.AddTextParagraph("after", "")
	})

	assert.Equal(t, "after", out)
}

func TestEncodeBibliography(t *testing.T) {
	opts := config.Default()
	opts.ExtractBibliography = true

	doc := wordml.New()
	doc.AddTextParagraph("Knuth, D. The TeXbook.", "Bibliography")
	doc.AddTextParagraph("Lamport, L. LaTeX.", "Bibliography")

	enc := NewEncoder(opts, nil)
	out := enc.Encode(doc, "refs")

	// One directive stands in for the whole reference list.
	assert.Equal(t, 1, strings.Count(out, `\bibliography{refs}`))
	assert.NotContains(t, out, "Knuth")
	assert.Equal(t, []string{"Knuth, D. The TeXbook.", "Lamport, L. LaTeX."}, enc.Bibliography())
}

func TestEncodeBibliographyDisabled(t *testing.T) {
	doc := wordml.New()
	doc.AddTextParagraph("Knuth, D. The TeXbook.", "Bibliography")

	enc := NewEncoder(config.Default(), nil)
	out := enc.Encode(doc, "refs")

	assert.NotContains(t, out, `\bibliography{`)
	// Entries are still collected so callers can decide what to do.
	assert.Len(t, enc.Bibliography(), 1)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := wordml.New()
	doc.AddHeading("Intro", 1)
	p := doc.AddParagraph("")
	p.AddRun("plain ")
	p.AddRun("bold").Bold = true
	p.AddRun(" then ")
	p.AddRun("slanted").Italic = true
	tab := doc.AddTable(2, 2)
	tab.SetCell(0, 0, "a")
	tab.SetCell(0, 1, "b")
	tab.SetCell(1, 0, "c")
	tab.SetCell(1, 1, "d")

	tex := NewEncoder(config.Default(), nil).Encode(doc, "refs")

	back, err := NewDecoder(config.Default(), nil).Decode(tex, t.TempDir())
	require.NoError(t, err)

	els := back.Elements()
	require.Len(t, els, 3)

	head, ok := els[0].(*wordml.Paragraph)
	require.True(t, ok)
	assert.Equal(t, "Heading 1", head.Style)
	assert.Equal(t, "Intro", head.Text())

	body, ok := els[1].(*wordml.Paragraph)
	require.True(t, ok)
	assert.Equal(t, "plain bold then slanted", body.Text())
	require.Len(t, body.Runs, 4)
	assert.True(t, body.Runs[1].Bold)
	assert.True(t, body.Runs[3].Italic)

	gotTab, ok := els[2].(*wordml.Table)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, gotTab.Cells)
}
