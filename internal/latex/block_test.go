package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentBody(t *testing.T) {
	t.Run("Explicit Document Environment", func(t *testing.T) {
		raw := "\\documentclass{article}\n\\begin{document}\nhello\n\\end{document}\n"
		assert.Equal(t, "hello", DocumentBody(raw))
	})

	t.Run("Snippet Without Wrapper", func(t *testing.T) {
		assert.Equal(t, "just a fragment", DocumentBody("  just a fragment\n"))
	})
}

func TestSplitBlocks(t *testing.T) {
	t.Run("Blank Line Separation", func(t *testing.T) {
		body := "first paragraph\n\nsecond paragraph\n\n\n\nthird"
		blocks := SplitBlocks(body)
		require.Len(t, blocks, 3)
		for _, b := range blocks {
			assert.Equal(t, KindParagraph, b.Kind)
		}
	})

	t.Run("Whitespace Only Blocks Dropped", func(t *testing.T) {
		blocks := SplitBlocks("a\n\n   \n\nb")
		assert.Len(t, blocks, 2)
	})
}

func TestClassify(t *testing.T) {
	t.Run("Heading Specificity", func(t *testing.T) {
		// The subsubsection keyword contains both shorter keywords as
		// substrings; it must still classify at depth 3.
		b := classify(`\subsubsection{Deep}`)
		assert.Equal(t, KindHeading, b.Kind)
		assert.Equal(t, 3, b.Level)

		b = classify(`\subsection{Mid}`)
		assert.Equal(t, 2, b.Level)

		b = classify(`\section{Top}`)
		assert.Equal(t, 1, b.Level)
	})

	t.Run("Environments", func(t *testing.T) {
		assert.Equal(t, KindTable, classify("\\begin{table}\n\\begin{tabular}{|c|}\na\\\\\n\\end{tabular}\n\\end{table}").Kind)
		assert.Equal(t, KindFigure, classify(`\begin{figure}\includegraphics{x.png}\end{figure}`).Kind)
		assert.Equal(t, KindCentered, classify("\\begin{center}\nhi\n\\end{center}").Kind)
	})

	t.Run("List Ordering", func(t *testing.T) {
		b := classify("\\begin{itemize}\n\\item a\n\\end{itemize}")
		assert.Equal(t, KindList, b.Kind)
		assert.False(t, b.Ordered)

		b = classify("\\begin{enumerate}\n\\item a\n\\end{enumerate}")
		assert.Equal(t, KindList, b.Kind)
		assert.True(t, b.Ordered)
	})

	t.Run("Paragraph Fallback", func(t *testing.T) {
		b := classify(`plain text with \textbf{markers} inside`)
		assert.Equal(t, KindParagraph, b.Kind)
	})
}
