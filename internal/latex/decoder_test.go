package latex

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-doctex/internal/config"
	"github.com/nerdneilsfield/go-doctex/internal/wordml"
)

func decodeString(t *testing.T, source string) *wordml.Document {
	t.Helper()
	dec := NewDecoder(config.Default(), nil)
	doc, err := dec.Decode(source, "")
	require.NoError(t, err)
	return doc
}

func onlyParagraphs(t *testing.T, doc *wordml.Document) []*wordml.Paragraph {
	t.Helper()
	var out []*wordml.Paragraph
	for _, el := range doc.Elements() {
		p, ok := el.(*wordml.Paragraph)
		require.True(t, ok, "expected only paragraphs in body")
		out = append(out, p)
	}
	return out
}

func TestDecodeHeadings(t *testing.T) {
	doc := decodeString(t, "\\section{One}\n\n\\subsection{Two}\n\n\\subsubsection{Three}")
	paras := onlyParagraphs(t, doc)
	require.Len(t, paras, 3)

	assert.Equal(t, "Heading 1", paras[0].Style)
	assert.Equal(t, "One", paras[0].Text())
	assert.Equal(t, "Heading 2", paras[1].Style)
	assert.Equal(t, "Heading 3", paras[2].Style)
	assert.Equal(t, "Three", paras[2].Text())
}

func TestDecodeHeadingWithoutTitleIsSkipped(t *testing.T) {
	doc := decodeString(t, "\\section\n\nreal paragraph")
	// The malformed heading block classifies as heading but yields
	// nothing; only the paragraph survives.
	paras := onlyParagraphs(t, doc)
	require.Len(t, paras, 1)
	assert.Equal(t, "real paragraph", paras[0].Text())
}

func TestDecodeParagraphFormatting(t *testing.T) {
	doc := decodeString(t, `mix of \textbf{bold} and \textit{italic} and $e=mc^2$`)
	paras := onlyParagraphs(t, doc)
	require.Len(t, paras, 1)

	runs := paras[0].Runs
	require.Len(t, runs, 6)
	assert.True(t, runs[1].Bold)
	assert.True(t, runs[3].Italic)
	// Math renders as italic in the word processor.
	assert.Equal(t, "e=mc^2", runs[5].Text)
	assert.True(t, runs[5].Italic)
}

func TestDecodeTable(t *testing.T) {
	src := `\begin{table}[h!]
\centering
\begin{tabular}{|c|c|}
\toprule
Name & Age \\
\midrule
Alice & 30 \\
\hline
Bob & 25 \\
\bottomrule
\end{tabular}
\end{table}`

	doc := decodeString(t, src)
	require.Len(t, doc.Elements(), 1)
	table, ok := doc.Elements()[0].(*wordml.Table)
	require.True(t, ok)

	assert.Equal(t, [][]string{
		{"Name", "Age"},
		{"Alice", "30"},
		{"Bob", "25"},
	}, table.Cells)
}

func TestDecodeTableUnevenRows(t *testing.T) {
	src := `\begin{tabular}{|c|c|}
a & b \\
only \\
x & y & extra \\
\end{tabular}`

	doc := decodeString(t, src)
	require.Len(t, doc.Elements(), 1)
	table := doc.Elements()[0].(*wordml.Table)

	// Column count fixed by the first row; short rows stay blank, extra
	// cells are dropped.
	assert.Equal(t, [][]string{
		{"a", "b"},
		{"only", ""},
		{"x", "y"},
	}, table.Cells)
}

func TestDecodeTableOnlyRules(t *testing.T) {
	src := `\begin{tabular}{|c|}
\toprule
\bottomrule
\end{tabular}`

	doc := decodeString(t, src)
	// Zero surviving rows produce no output at all.
	assert.Empty(t, doc.Elements())
}

func TestDecodeLists(t *testing.T) {
	t.Run("Unordered", func(t *testing.T) {
		src := "\\begin{itemize}\n\\item first thing\n\\item second \\textbf{bold} thing\n\\end{itemize}"
		doc := decodeString(t, src)
		paras := onlyParagraphs(t, doc)
		require.Len(t, paras, 2)

		assert.Equal(t, "List Bullet", paras[0].Style)
		assert.Equal(t, "first thing", paras[0].Text())

		assert.Equal(t, "second bold thing", paras[1].Text())
		require.Len(t, paras[1].Runs, 3)
		assert.True(t, paras[1].Runs[1].Bold)
	})

	t.Run("Ordered", func(t *testing.T) {
		src := "\\begin{enumerate}\n\\item one\n\\item two\n\\end{enumerate}"
		doc := decodeString(t, src)
		paras := onlyParagraphs(t, doc)
		require.Len(t, paras, 2)
		assert.Equal(t, "List Number", paras[0].Style)
		assert.Equal(t, "List Number", paras[1].Style)
	})
}

func TestDecodeCentered(t *testing.T) {
	doc := decodeString(t, "\\begin{center}\nA \\textit{centered} line\n\\end{center}")
	paras := onlyParagraphs(t, doc)
	require.Len(t, paras, 1)
	assert.Equal(t, wordml.AlignCenter, paras[0].Alignment)
	assert.Equal(t, "A centered line", paras[0].Text())
}

func TestDecodeFigure(t *testing.T) {
	t.Run("Missing File Becomes Placeholder", func(t *testing.T) {
		doc := decodeString(t, `\begin{figure}
\includegraphics[width=\textwidth]{figures/missing.png}
\end{figure}`)

		paras := onlyParagraphs(t, doc)
		require.Len(t, paras, 1)
		assert.Equal(t, "[Image file not found: figures/missing.png]", paras[0].Text())
	})

	t.Run("Existing File Embedded", func(t *testing.T) {
		dir := t.TempDir()
		imgPath := filepath.Join(dir, "fig.png")
		f, err := os.Create(imgPath)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 10, 10))))
		require.NoError(t, f.Close())

		dec := NewDecoder(config.Default(), nil)
		doc, err := dec.Decode(`\begin{figure}\includegraphics{fig.png}\end{figure}`, dir)
		require.NoError(t, err)

		// An embedded image is a paragraph whose only run is the drawing,
		// so its visible text is empty, not a placeholder.
		paras := onlyParagraphs(t, doc)
		require.Len(t, paras, 1)
		assert.Empty(t, paras[0].Text())
	})

	t.Run("Undecodable File Becomes Distinct Placeholder", func(t *testing.T) {
		dir := t.TempDir()
		imgPath := filepath.Join(dir, "corrupt.png")
		require.NoError(t, os.WriteFile(imgPath, []byte("not an image"), 0o644))

		// AddPicture tolerates undecodable bytes (it falls back to a fixed
		// aspect ratio), so corrupt data still embeds. The distinct
		// error-loading placeholder only appears when reading fails.
		unreadable := filepath.Join(dir, "gone.png")
		require.NoError(t, os.WriteFile(unreadable, []byte("x"), 0o000))
		if _, err := os.ReadFile(unreadable); err == nil {
			t.Skip("running as a user that ignores file modes")
		}

		dec := NewDecoder(config.Default(), nil)
		doc, err := dec.Decode(`\begin{figure}\includegraphics{gone.png}\end{figure}`, dir)
		require.NoError(t, err)

		paras := onlyParagraphs(t, doc)
		require.Len(t, paras, 1)
		assert.Equal(t, "[Image found but error loading: gone.png]", paras[0].Text())
	})
}

func TestDecodeBodyNarrowing(t *testing.T) {
	full := "\\documentclass{article}\n\\begin{document}\ninside\n\\end{document}"
	snippet := "inside"

	docFull := decodeString(t, full)
	docSnippet := decodeString(t, snippet)

	require.Len(t, docFull.Elements(), 1)
	require.Len(t, docSnippet.Elements(), 1)
	assert.Equal(t,
		docFull.Elements()[0].(*wordml.Paragraph).Text(),
		docSnippet.Elements()[0].(*wordml.Paragraph).Text())
}
