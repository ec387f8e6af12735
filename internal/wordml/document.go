// Package wordml implements the structured word-processing document the
// transcoders read and produce: an ordered stream of paragraphs and tables
// inside an OOXML (.docx) package. Only the surface the converter needs is
// modeled — styled runs, alignment, plain-text table cells, inline pictures.
package wordml

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
)

// Alignment is the paragraph justification as far as the converter cares.
type Alignment int

const (
	AlignUnset Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// BodyElement is either a *Paragraph or a *Table. Body order is significant
// and preserved exactly through read, mutation and write.
type BodyElement interface {
	isBodyElement()
}

// Run is a contiguous span of paragraph text sharing one formatting set.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Hyperlink string // target address, empty for plain runs

	picture *picture // set only on image runs
}

// Paragraph is one styled paragraph with its ordered runs.
type Paragraph struct {
	Style     string // style name, e.g. "Normal", "Heading 1", "List Bullet"
	Alignment Alignment
	Runs      []Run
}

func (p *Paragraph) isBodyElement() {}

// Text returns the concatenated run text.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// AddRun appends a plain run and returns it for flag mutation.
func (p *Paragraph) AddRun(text string) *Run {
	p.Runs = append(p.Runs, Run{Text: text})
	return &p.Runs[len(p.Runs)-1]
}

// Table is rows of plain-text cells. All rows share the column count fixed
// at creation; the converter never needs merged cells or nested content.
type Table struct {
	Cells [][]string
}

func (t *Table) isBodyElement() {}

// SetCell writes cell text, ignoring out-of-range coordinates.
func (t *Table) SetCell(row, col int, text string) {
	if row < 0 || row >= len(t.Cells) {
		return
	}
	if col < 0 || col >= len(t.Cells[row]) {
		return
	}
	t.Cells[row][col] = text
}

type picture struct {
	name    string // file name inside word/media/
	data    []byte
	widthPx int
	hghtPx  int
	emuW    int64
	emuH    int64
}

// Document is the in-memory word-processing document.
type Document struct {
	elements []BodyElement
	pictures []*picture

	fontName string
	fontSize int // half-points written to styles.xml, stored here in points
}

// New creates an empty document with the standard report styling.
func New() *Document {
	return &Document{
		fontName: "Times New Roman",
		fontSize: 12,
	}
}

// Elements returns the ordered body. Callers must not reorder it.
func (d *Document) Elements() []BodyElement {
	return d.elements
}

// SetBaseFont sets the Normal style font carried into styles.xml.
func (d *Document) SetBaseFont(name string, sizePt int) {
	if name != "" {
		d.fontName = name
	}
	if sizePt > 0 {
		d.fontSize = sizePt
	}
}

// AddParagraph appends an empty paragraph with the given style ("" means
// Normal) and returns it for run population.
func (d *Document) AddParagraph(style string) *Paragraph {
	if style == "" {
		style = "Normal"
	}
	p := &Paragraph{Style: style}
	d.elements = append(d.elements, p)
	return p
}

// AddTextParagraph appends a single-run paragraph, the common case for
// placeholders and simple text.
func (d *Document) AddTextParagraph(text, style string) *Paragraph {
	p := d.AddParagraph(style)
	p.AddRun(text)
	return p
}

// AddHeading appends a heading paragraph at the given level. Levels outside
// 1..9 are clamped; the converter only produces 1..3.
func (d *Document) AddHeading(title string, level int) *Paragraph {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	p := d.AddParagraph(fmt.Sprintf("Heading %d", level))
	p.AddRun(title)
	return p
}

// AddTable appends a rows x cols table with empty cells.
func (d *Document) AddTable(rows, cols int) *Table {
	cells := make([][]string, rows)
	for i := range cells {
		cells[i] = make([]string, cols)
	}
	t := &Table{Cells: cells}
	d.elements = append(d.elements, t)
	return t
}

// EMUs per inch in OOXML drawing coordinates.
const emuPerInch = 914400

// AddPicture embeds the image file as its own paragraph, displayed at
// widthInches. The file must exist and be a decodable PNG or JPEG for the
// aspect ratio to be honored; undecodable data falls back to 3:2.
func (d *Document) AddPicture(path string, widthInches float64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", path, err)
	}

	pic := &picture{
		name: fmt.Sprintf("image%d%s", len(d.pictures)+1, normalizeImageExt(path)),
		data: data,
	}

	if cfg, _, err := image.DecodeConfig(strings.NewReader(string(data))); err == nil && cfg.Width > 0 {
		pic.widthPx = cfg.Width
		pic.hghtPx = cfg.Height
	} else {
		pic.widthPx = 3
		pic.hghtPx = 2
	}

	pic.emuW = int64(widthInches * emuPerInch)
	pic.emuH = int64(float64(pic.emuW) * float64(pic.hghtPx) / float64(pic.widthPx))

	d.pictures = append(d.pictures, pic)

	p := d.AddParagraph("Normal")
	p.Runs = append(p.Runs, Run{picture: pic})
	return nil
}

func normalizeImageExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp":
		return ext
	default:
		return ".png"
	}
}

// styleID converts a style name to the OOXML style identifier, e.g.
// "Heading 1" -> "Heading1", "List Bullet" -> "ListBullet".
func styleID(name string) string {
	return strings.ReplaceAll(name, " ", "")
}
