package pptx

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
)

// Slide holds the content of one slide in document order per kind.
type Slide struct {
	// Title is the text of the title placeholder, "" when absent.
	Title string

	// Bodies holds one entry per non-title text shape: paragraphs joined
	// with " | ". An empty shape contributes an empty string so entries
	// keep their positions.
	Bodies []string

	// Tables holds each table as rows of cell text.
	Tables [][][]string

	// Images holds each picture in document order. Data is nil when the
	// picture's payload could not be resolved from the archive.
	Images []Image
}

// Image is one embedded picture.
type Image struct {
	RelID string
	Name  string
	Data  []byte
}

// parseSlideXML walks one slide part's DrawingML. It is a token walk
// rather than a struct decode: text runs, tables, and pictures live at
// varying depths under namespaced elements, and only a handful of local
// names matter.
func parseSlideXML(data []byte) (Slide, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	dec.CharsetReader = charset.NewReaderLabel

	var slide Slide

	var (
		inShape    bool
		shapeTitle bool
		shapeParas []string

		inPara bool
		para   strings.Builder

		inTable bool
		table   [][]string
		row     []string
		inCell  bool
		cell    strings.Builder

		inPic  bool
		inText bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Slide{}, eris.Wrap(err, "decode slide xml")
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sp":
				inShape = true
				shapeTitle = false
				shapeParas = shapeParas[:0]
			case "ph":
				if inShape && isTitlePlaceholder(el) {
					shapeTitle = true
				}
			case "tbl":
				inTable = true
				table = nil
			case "tr":
				if inTable {
					row = nil
				}
			case "tc":
				if inTable {
					inCell = true
					cell.Reset()
				}
			case "pic":
				inPic = true
			case "blip":
				if inPic {
					if relID := embedAttr(el); relID != "" {
						slide.Images = append(slide.Images, Image{RelID: relID})
					}
				}
			case "p":
				if inShape && !inCell {
					inPara = true
					para.Reset()
				}
			case "t":
				inText = true
			}

		case xml.EndElement:
			switch el.Name.Local {
			case "sp":
				body := joinParagraphs(shapeParas)
				if shapeTitle {
					slide.Title = body
				} else {
					slide.Bodies = append(slide.Bodies, body)
				}
				inShape = false
			case "tbl":
				slide.Tables = append(slide.Tables, table)
				inTable = false
			case "tr":
				if inTable {
					table = append(table, row)
				}
			case "tc":
				if inCell {
					row = append(row, strings.TrimSpace(cell.String()))
					inCell = false
				}
			case "pic":
				inPic = false
			case "p":
				if inCell {
					// Paragraph breaks inside a cell flatten to a space.
					cell.WriteString(" ")
				} else if inPara {
					shapeParas = append(shapeParas, strings.TrimSpace(para.String()))
					inPara = false
				}
			case "t":
				inText = false
			}

		case xml.CharData:
			if !inText {
				continue
			}
			if inCell {
				cell.Write(el)
			} else if inPara {
				para.Write(el)
			}
		}
	}

	return slide, nil
}

// isTitlePlaceholder reports whether a p:ph element marks the slide title.
func isTitlePlaceholder(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "type" && (a.Value == "title" || a.Value == "ctrTitle") {
			return true
		}
	}
	return false
}

// embedAttr returns the r:embed relationship ID of an a:blip element.
func embedAttr(el xml.StartElement) string {
	for _, a := range el.Attr {
		if a.Name.Local == "embed" {
			return a.Value
		}
	}
	return ""
}

// joinParagraphs joins the non-empty paragraphs of a shape with " | ",
// matching how multi-paragraph shapes read as a single line of content.
func joinParagraphs(paras []string) string {
	var kept []string
	for _, p := range paras {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " | ")
}
