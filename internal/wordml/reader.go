package wordml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Open reads a .docx package into a Document. Only the parts the converter
// consumes are parsed: body order, paragraph styles and alignment, run
// formatting, hyperlink targets, and table cell text. A missing styles part
// is tolerated; style IDs are then used as names.
func Open(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer zr.Close()

	var docFile, relsFile, stylesFile *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			docFile = f
		case "word/_rels/document.xml.rels":
			relsFile = f
		case "word/styles.xml":
			stylesFile = f
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("%s: word/document.xml not found, not a DOCX package", path)
	}

	rels := map[string]string{}
	if relsFile != nil {
		if rels, err = parseRelationships(relsFile); err != nil {
			return nil, fmt.Errorf("failed to parse relationships: %w", err)
		}
	}

	styles := map[string]string{}
	if stylesFile != nil {
		// Style resolution is best effort; a broken styles part should not
		// sink the whole conversion.
		styles, _ = parseStyles(stylesFile)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	doc := New()
	if err := parseBody(rc, doc, rels, styles); err != nil {
		return nil, fmt.Errorf("failed to parse document.xml: %w", err)
	}
	return doc, nil
}

func parseRelationships(f *zip.File) (map[string]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var rels struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		out[rel.ID] = rel.Target
	}
	return out, nil
}

func parseStyles(f *zip.File) (map[string]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var styles struct {
		Styles []struct {
			ID   string `xml:"styleId,attr"`
			Name struct {
				Val string `xml:"val,attr"`
			} `xml:"name"`
		} `xml:"style"`
	}
	if err := xml.NewDecoder(rc).Decode(&styles); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(styles.Styles))
	for _, s := range styles.Styles {
		if s.Name.Val != "" {
			out[s.ID] = s.Name.Val
		}
	}
	return out, nil
}

// parseBody walks the body token stream, preserving element order
// (paragraphs and tables interleave in real documents).
func parseBody(r io.Reader, doc *Document, rels, styles map[string]string) error {
	dec := xml.NewDecoder(r)
	inBody := false

	for {
		token, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "body":
				inBody = true
			case "p":
				if !inBody {
					continue
				}
				para, err := parseParagraph(dec, rels, styles)
				if err != nil {
					return err
				}
				doc.elements = append(doc.elements, para)
			case "tbl":
				if !inBody {
					continue
				}
				table, err := parseTable(dec)
				if err != nil {
					return err
				}
				doc.elements = append(doc.elements, table)
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				return nil
			}
		}
	}
}

func parseParagraph(dec *xml.Decoder, rels, styles map[string]string) (*Paragraph, error) {
	para := &Paragraph{Style: "Normal"}

	for {
		token, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := parseParagraphProps(dec, para, styles); err != nil {
					return nil, err
				}
			case "r":
				run, err := parseRun(dec)
				if err != nil {
					return nil, err
				}
				if run != nil {
					para.Runs = append(para.Runs, *run)
				}
			case "hyperlink":
				target := rels[attr(t, "id")]
				if err := parseHyperlink(dec, para, target); err != nil {
					return nil, err
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return para, nil
			}
		}
	}
}

func parseParagraphProps(dec *xml.Decoder, para *Paragraph, styles map[string]string) error {
	for {
		token, err := dec.Token()
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				id := attr(t, "val")
				if name, ok := styles[id]; ok {
					para.Style = name
				} else if id != "" {
					para.Style = id
				}
				if err := dec.Skip(); err != nil {
					return err
				}
			case "jc":
				switch attr(t, "val") {
				case "center":
					para.Alignment = AlignCenter
				case "right", "end":
					para.Alignment = AlignRight
				case "left", "start":
					para.Alignment = AlignLeft
				}
				if err := dec.Skip(); err != nil {
					return err
				}
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "pPr" {
				return nil
			}
		}
	}
}

func parseHyperlink(dec *xml.Decoder, para *Paragraph, target string) error {
	for {
		token, err := dec.Token()
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "r" {
				run, err := parseRun(dec)
				if err != nil {
					return err
				}
				if run != nil {
					run.Hyperlink = target
					para.Runs = append(para.Runs, *run)
				}
			} else if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "hyperlink" {
				return nil
			}
		}
	}
}

// parseRun returns nil for runs without text, e.g. pure drawing runs.
func parseRun(dec *xml.Decoder) (*Run, error) {
	run := Run{}
	sawText := false

	for {
		token, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := parseRunProps(dec, &run); err != nil {
					return nil, err
				}
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, err
				}
				run.Text += text
				sawText = true
			case "tab":
				run.Text += "\t"
				sawText = true
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case "br":
				run.Text += "\n"
				sawText = true
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				if !sawText {
					return nil, nil
				}
				return &run, nil
			}
		}
	}
}

func parseRunProps(dec *xml.Decoder, run *Run) error {
	for {
		token, err := dec.Token()
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			val := attr(t, "val")
			on := val == "" || (val != "false" && val != "0" && val != "none")
			switch t.Name.Local {
			case "b":
				run.Bold = on
			case "i":
				run.Italic = on
			case "u":
				run.Underline = on
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "rPr" {
				return nil
			}
		}
	}
}

func parseTable(dec *xml.Decoder) (*Table, error) {
	table := &Table{}

	for {
		token, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				row, err := parseTableRow(dec)
				if err != nil {
					return nil, err
				}
				table.Cells = append(table.Cells, row)
			case "tblPr", "tblGrid":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return table, nil
			}
		}
	}
}

func parseTableRow(dec *xml.Decoder) ([]string, error) {
	var row []string

	for {
		token, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				cell, err := parseTableCell(dec)
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
			case "trPr":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				return row, nil
			}
		}
	}
}

// parseTableCell flattens all text in the cell; the converter treats cells
// as plain text. Nested tables are skipped rather than flattened.
func parseTableCell(dec *xml.Decoder) (string, error) {
	var parts []string

	for {
		token, err := dec.Token()
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return "", err
				}
				parts = append(parts, text)
			case "tbl":
				if err := dec.Skip(); err != nil {
					return "", err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				return strings.Join(parts, ""), nil
			}
		}
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
