package latex

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doctex/internal/config"
	"github.com/nerdneilsfield/go-doctex/internal/imaging"
	"github.com/nerdneilsfield/go-doctex/internal/wordml"
)

// Decoder turns LaTeX source into a structured document. One Decoder serves
// one conversion: it owns the per-call temp workspace, so independent
// conversions never share state.
type Decoder struct {
	opts   config.ConversionOptions
	logger *zap.Logger
	ws     *imaging.Workspace
}

// NewDecoder creates a decoder for a single conversion.
func NewDecoder(opts config.ConversionOptions, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{opts: opts, logger: logger}
}

var (
	headingTitleRe = regexp.MustCompile(`\\(?:sub)*section\*?\{([^}]*)\}`)
	tabularRe      = regexp.MustCompile(`(?s)\\begin\{tabular\}\{[^}]*\}(.*?)\\end\{tabular\}`)
	includeRe      = regexp.MustCompile(`\\includegraphics(?:\[[^\]]*\])?\{([^}]*)\}`)
	centerRe       = regexp.MustCompile(`(?s)\\begin\{center\}(.*?)\\end\{center\}`)
	ruleLineRe     = regexp.MustCompile(`^\\(?:toprule|midrule|bottomrule|hline|cline\{[^}]*\})\s*$`)

	// Item extraction needs a lookahead stop set, which RE2 cannot express:
	// an item runs non-greedily to the next \item, a line break, or the
	// environment close.
	listItemRe = regexp2.MustCompile(`(?s)\\item\s+(.*?)(?=\\item|\n|\\end)`, 0)
)

// Decode builds a structured document from raw LaTeX. Relative figure
// paths resolve against baseDir. Malformed blocks degrade to nothing or a
// placeholder; they never abort the document.
func (d *Decoder) Decode(source, baseDir string) (*wordml.Document, error) {
	doc := wordml.New()
	doc.SetBaseFont("Times New Roman", fontSizePoints(d.opts.FontSize))

	body := DocumentBody(source)
	for _, block := range SplitBlocks(body) {
		switch block.Kind {
		case KindHeading:
			d.addHeading(doc, block)
		case KindTable:
			d.addTable(doc, block)
		case KindFigure:
			d.addFigure(doc, block, baseDir)
		case KindList:
			d.addList(doc, block)
		case KindCentered:
			d.addCentered(doc, block)
		case KindParagraph:
			d.addParagraph(doc, block)
		}
	}

	return doc, nil
}

// Cleanup removes the decoder's temp workspace, if one was created.
func (d *Decoder) Cleanup() {
	if d.ws != nil {
		d.ws.Cleanup()
		d.ws = nil
	}
}

func fontSizePoints(fontSize string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(fontSize, "pt"))
	if err != nil || n <= 0 {
		return 12
	}
	return n
}

func (d *Decoder) addHeading(doc *wordml.Document, block Block) {
	m := headingTitleRe.FindStringSubmatch(block.Raw)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		d.logger.Warn("skipping heading without a title argument",
			zap.Int("level", block.Level))
		return
	}
	doc.AddHeading(Unescape(m[1]), block.Level)
}

func (d *Decoder) addTable(doc *wordml.Document, block Block) {
	m := tabularRe.FindStringSubmatch(block.Raw)
	if m == nil {
		d.logger.Warn("table block without a tabular environment, skipping")
		return
	}

	var rows []string
	for _, piece := range strings.Split(m[1], `\\`) {
		// Rule and divider commands (\hline, \toprule, ...) are layout,
		// not data; a piece left with nothing else is not a row.
		var kept []string
		for _, line := range strings.Split(piece, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || ruleLineRe.MatchString(line) {
				continue
			}
			kept = append(kept, line)
		}
		if row := strings.Join(kept, " "); row != "" {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return
	}

	// The first row fixes the column count; extra cells in later rows are
	// dropped, missing cells stay blank.
	cols := len(strings.Split(rows[0], "&"))
	table := doc.AddTable(len(rows), cols)
	for i, row := range rows {
		for j, cell := range strings.Split(row, "&") {
			if j >= cols {
				break
			}
			table.SetCell(i, j, Unescape(strings.TrimSpace(cell)))
		}
	}
}

func (d *Decoder) addFigure(doc *wordml.Document, block Block, baseDir string) {
	m := includeRe.FindStringSubmatch(block.Raw)
	if m == nil {
		d.logger.Warn("figure block without \\includegraphics, skipping")
		return
	}

	imgPath := m[1]
	resolved := imgPath
	if !filepath.IsAbs(resolved) && baseDir != "" {
		resolved = filepath.Join(baseDir, imgPath)
	}

	if _, err := os.Stat(resolved); err != nil {
		d.logger.Warn("referenced image does not exist, inserting placeholder",
			zap.String("path", imgPath))
		doc.AddTextParagraph("[Image file not found: "+imgPath+"]", "Normal")
		return
	}

	if d.opts.OptimizeImages {
		if staged, err := d.optimize(resolved); err == nil {
			resolved = staged
		} else {
			d.logger.Warn("image optimization failed, embedding original",
				zap.String("path", imgPath), zap.Error(err))
		}
	}

	if err := doc.AddPicture(resolved, 4.0); err != nil {
		d.logger.Warn("image embedding failed, inserting placeholder",
			zap.String("path", imgPath), zap.Error(err))
		doc.AddTextParagraph("[Image found but error loading: "+imgPath+"]", "Normal")
	}
}

func (d *Decoder) optimize(path string) (string, error) {
	if d.ws == nil {
		ws, err := imaging.NewWorkspace()
		if err != nil {
			return "", err
		}
		d.ws = ws
	}
	return d.ws.Optimize(path)
}

func (d *Decoder) addList(doc *wordml.Document, block Block) {
	style := "List Bullet"
	if block.Ordered {
		style = "List Number"
	}

	m, err := listItemRe.FindStringMatch(block.Raw)
	for err == nil && m != nil {
		item := strings.TrimSpace(m.GroupByNumber(1).String())
		if item != "" {
			p := doc.AddParagraph(style)
			applySpans(p, Tokenize(item))
		}
		m, err = listItemRe.FindNextMatch(m)
	}
	if err != nil {
		d.logger.Warn("list item scan aborted", zap.Error(err))
	}
}

func (d *Decoder) addCentered(doc *wordml.Document, block Block) {
	m := centerRe.FindStringSubmatch(block.Raw)
	if m == nil {
		d.logger.Warn("center block without closing environment, treating as paragraph")
		d.addParagraph(doc, block)
		return
	}

	p := doc.AddParagraph("Normal")
	p.Alignment = wordml.AlignCenter
	applySpans(p, Tokenize(strings.TrimSpace(m[1])))
}

func (d *Decoder) addParagraph(doc *wordml.Document, block Block) {
	p := doc.AddParagraph("Normal")
	applySpans(p, Tokenize(block.Raw))
}

// applySpans appends tokenized spans as document runs. Math spans render
// italic so formula text stays visually distinct in the word processor.
func applySpans(p *wordml.Paragraph, spans []Span) {
	for _, span := range spans {
		run := p.AddRun(span.Text)
		run.Bold = span.Bold
		run.Italic = span.Italic || span.Math
		run.Underline = span.Underline
		run.Hyperlink = span.Hyperlink
	}
}
