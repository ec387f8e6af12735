package wordml

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

// Save writes the document as a .docx package at path.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return d.Write(f)
}

// Write streams the .docx package to w.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	rels := d.assignRelationships()

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", d.contentTypesXML()},
		{"_rels/.rels", packageRelsXML},
		{"word/document.xml", d.documentXML(rels)},
		{"word/_rels/document.xml.rels", d.documentRelsXML(rels)},
		{"word/styles.xml", d.stylesXML()},
	}

	for _, part := range parts {
		pw, err := zw.Create(part.name)
		if err != nil {
			return err
		}
		if _, err := pw.Write([]byte(part.content)); err != nil {
			return err
		}
	}

	for _, pic := range d.pictures {
		pw, err := zw.Create("word/media/" + pic.name)
		if err != nil {
			return err
		}
		if _, err := pw.Write(pic.data); err != nil {
			return err
		}
	}

	return zw.Close()
}

// relTable maps hyperlink targets and pictures to relationship IDs for one
// Write call.
type relTable struct {
	hyperlinks map[string]string // target -> rId
	pictures   map[*picture]string
	ordered    []relEntry
}

type relEntry struct {
	id       string
	relType  string
	target   string
	external bool
}

func (d *Document) assignRelationships() *relTable {
	rels := &relTable{
		hyperlinks: make(map[string]string),
		pictures:   make(map[*picture]string),
	}
	next := 1
	add := func(relType, target string, external bool) string {
		id := fmt.Sprintf("rId%d", next)
		next++
		rels.ordered = append(rels.ordered, relEntry{id: id, relType: relType, target: target, external: external})
		return id
	}

	add("http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles", "styles.xml", false)

	for _, el := range d.elements {
		p, ok := el.(*Paragraph)
		if !ok {
			continue
		}
		for i := range p.Runs {
			run := &p.Runs[i]
			if run.Hyperlink != "" {
				if _, seen := rels.hyperlinks[run.Hyperlink]; !seen {
					rels.hyperlinks[run.Hyperlink] = add(
						"http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink",
						run.Hyperlink, true)
				}
			}
			if run.picture != nil {
				rels.pictures[run.picture] = add(
					"http://schemas.openxmlformats.org/officeDocument/2006/relationships/image",
					"media/"+run.picture.name, false)
			}
		}
	}

	return rels
}

func (d *Document) documentXML(rels *relTable) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	sb.WriteString("<w:body>")

	picIndex := 0
	for _, el := range d.elements {
		switch v := el.(type) {
		case *Paragraph:
			writeParagraph(&sb, v, rels, &picIndex)
		case *Table:
			writeTable(&sb, v)
		}
	}

	sb.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`)
	sb.WriteString("</w:body></w:document>")
	return sb.String()
}

func writeParagraph(sb *strings.Builder, p *Paragraph, rels *relTable, picIndex *int) {
	sb.WriteString("<w:p>")

	hasProps := (p.Style != "" && p.Style != "Normal") || p.Alignment == AlignCenter || p.Alignment == AlignRight
	if hasProps {
		sb.WriteString("<w:pPr>")
		if p.Style != "" && p.Style != "Normal" {
			fmt.Fprintf(sb, `<w:pStyle w:val="%s"/>`, styleID(p.Style))
		}
		switch p.Alignment {
		case AlignCenter:
			sb.WriteString(`<w:jc w:val="center"/>`)
		case AlignRight:
			sb.WriteString(`<w:jc w:val="right"/>`)
		}
		sb.WriteString("</w:pPr>")
	}

	for i := range p.Runs {
		run := &p.Runs[i]
		if run.picture != nil {
			*picIndex++
			writePictureRun(sb, run.picture, rels.pictures[run.picture], *picIndex)
			continue
		}
		if run.Hyperlink != "" {
			fmt.Fprintf(sb, `<w:hyperlink r:id="%s">`, rels.hyperlinks[run.Hyperlink])
			writeRun(sb, run)
			sb.WriteString("</w:hyperlink>")
			continue
		}
		writeRun(sb, run)
	}

	sb.WriteString("</w:p>")
}

func writeRun(sb *strings.Builder, run *Run) {
	sb.WriteString("<w:r>")
	if run.Bold || run.Italic || run.Underline {
		sb.WriteString("<w:rPr>")
		if run.Bold {
			sb.WriteString("<w:b/>")
		}
		if run.Italic {
			sb.WriteString("<w:i/>")
		}
		if run.Underline {
			sb.WriteString(`<w:u w:val="single"/>`)
		}
		sb.WriteString("</w:rPr>")
	}
	fmt.Fprintf(sb, `<w:t xml:space="preserve">%s</w:t>`, xmlEscape(run.Text))
	sb.WriteString("</w:r>")
}

func writeTable(sb *strings.Builder, t *Table) {
	if len(t.Cells) == 0 {
		return
	}
	sb.WriteString("<w:tbl>")
	sb.WriteString(`<w:tblPr><w:tblStyle w:val="TableGrid"/>` +
		`<w:tblBorders>` +
		`<w:top w:val="single" w:sz="4"/><w:left w:val="single" w:sz="4"/>` +
		`<w:bottom w:val="single" w:sz="4"/><w:right w:val="single" w:sz="4"/>` +
		`<w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/>` +
		`</w:tblBorders></w:tblPr>`)

	for _, row := range t.Cells {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc><w:p><w:r>")
			fmt.Fprintf(sb, `<w:t xml:space="preserve">%s</w:t>`, xmlEscape(cell))
			sb.WriteString("</w:r></w:p></w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
}

func writePictureRun(sb *strings.Builder, pic *picture, relID string, index int) {
	sb.WriteString("<w:r><w:drawing>")
	fmt.Fprintf(sb, `<wp:inline distT="0" distB="0" distL="0" distR="0">`)
	fmt.Fprintf(sb, `<wp:extent cx="%d" cy="%d"/>`, pic.emuW, pic.emuH)
	fmt.Fprintf(sb, `<wp:docPr id="%d" name="Picture %d"/>`, index, index)
	sb.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	sb.WriteString("<pic:pic>")
	fmt.Fprintf(sb, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, index, xmlEscape(pic.name))
	fmt.Fprintf(sb, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, relID)
	fmt.Fprintf(sb, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`, pic.emuW, pic.emuH)
	sb.WriteString("</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>")
}

func (d *Document) documentRelsXML(rels *relTable) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, rel := range rels.ordered {
		if rel.external {
			fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s" TargetMode="External"/>`,
				rel.id, rel.relType, xmlEscape(rel.target))
		} else {
			fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s"/>`,
				rel.id, rel.relType, xmlEscape(rel.target))
		}
	}
	sb.WriteString("</Relationships>")
	return sb.String()
}

func (d *Document) contentTypesXML() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)

	seen := map[string]bool{}
	for _, pic := range d.pictures {
		ext := strings.TrimPrefix(normalizeImageExt(pic.name), ".")
		if seen[ext] {
			continue
		}
		seen[ext] = true
		ct := "image/" + ext
		if ext == "jpg" {
			ct = "image/jpeg"
		}
		fmt.Fprintf(&sb, `<Default Extension="%s" ContentType="%s"/>`, ext, ct)
	}

	sb.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	sb.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	sb.WriteString("</Types>")
	return sb.String()
}

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

func (d *Document) stylesXML() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)

	fmt.Fprintf(&sb, `<w:docDefaults><w:rPrDefault><w:rPr>`+
		`<w:rFonts w:ascii="%s" w:hAnsi="%s"/><w:sz w:val="%d"/>`+
		`</w:rPr></w:rPrDefault></w:docDefaults>`,
		xmlEscape(d.fontName), xmlEscape(d.fontName), d.fontSize*2)

	writeStyle := func(id, name string, extra string) {
		fmt.Fprintf(&sb, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="%s"/>%s</w:style>`, id, name, extra)
	}

	writeStyle("Normal", "Normal", "")
	for level := 1; level <= 5; level++ {
		sz := 32 - level*2
		writeStyle(fmt.Sprintf("Heading%d", level), fmt.Sprintf("Heading %d", level),
			fmt.Sprintf(`<w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr>`, sz))
	}
	writeStyle("ListBullet", "List Bullet", `<w:basedOn w:val="Normal"/>`)
	writeStyle("ListNumber", "List Number", `<w:basedOn w:val="Normal"/>`)
	writeStyle("Bibliography", "Bibliography", `<w:basedOn w:val="Normal"/>`)

	fmt.Fprintf(&sb, `<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/></w:style>`)

	sb.WriteString("</w:styles>")
	return sb.String()
}
