// Package pptx reads PowerPoint (OOXML) archives: slide order, shape and
// table text, and embedded image payloads. It is deliberately small — it
// reads decks, it never writes them.
package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
)

// ParseError indicates an unreadable or structurally corrupt archive.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pptx: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Deck is a fully parsed presentation: slides in presentation order with
// their text content and image payloads loaded into memory.
type Deck struct {
	Slides []Slide
}

// Open reads and parses the presentation archive at the given path.
func Open(deckPath string) (*Deck, error) {
	zr, err := zip.OpenReader(deckPath)
	if err != nil {
		return nil, &ParseError{Path: deckPath, Err: eris.Wrap(err, "open archive")}
	}
	defer zr.Close() //nolint:errcheck

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}

	presRels, err := readRels(parts, presentationRels)
	if err != nil {
		return nil, &ParseError{Path: deckPath, Err: err}
	}

	slideParts, err := slideOrder(parts, presRels)
	if err != nil {
		return nil, &ParseError{Path: deckPath, Err: err}
	}

	deck := &Deck{Slides: make([]Slide, 0, len(slideParts))}
	for _, part := range slideParts {
		slide, err := readSlide(parts, part)
		if err != nil {
			return nil, &ParseError{Path: deckPath, Err: eris.Wrapf(err, "slide part %s", part)}
		}
		deck.Slides = append(deck.Slides, slide)
	}
	return deck, nil
}

// relationship is one entry of a .rels part.
type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationshipsXML struct {
	Relationships []relationship `xml:"Relationship"`
}

func readRels(parts map[string]*zip.File, name string) (map[string]string, error) {
	f, ok := parts[name]
	if !ok {
		return nil, eris.Errorf("missing part %s", name)
	}
	data, err := readPart(f)
	if err != nil {
		return nil, err
	}

	var rels relationshipsXML
	if err := decodeXML(data, &rels); err != nil {
		return nil, eris.Wrapf(err, "decode %s", name)
	}

	out := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		out[r.ID] = r.Target
	}
	return out, nil
}

type presentationXML struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

// slideOrder resolves the ordered slide part names from the presentation's
// sldIdLst through its relationships. Order here is presentation order,
// not the lexical order of part names (slide10.xml sorts before slide2.xml).
func slideOrder(parts map[string]*zip.File, rels map[string]string) ([]string, error) {
	f, ok := parts[presentationPart]
	if !ok {
		return nil, eris.Errorf("missing part %s", presentationPart)
	}
	data, err := readPart(f)
	if err != nil {
		return nil, err
	}

	var pres presentationXML
	if err := decodeXML(data, &pres); err != nil {
		return nil, eris.Wrap(err, "decode presentation.xml")
	}

	names := make([]string, 0, len(pres.SlideIDs))
	for _, sid := range pres.SlideIDs {
		target, ok := rels[sid.RelID]
		if !ok {
			return nil, eris.Errorf("unresolved slide relationship %s", sid.RelID)
		}
		names = append(names, resolveTarget("ppt", target))
	}
	return names, nil
}

// readSlide parses one slide part and loads the media payloads its
// pictures reference.
func readSlide(parts map[string]*zip.File, part string) (Slide, error) {
	f, ok := parts[part]
	if !ok {
		return Slide{}, eris.Errorf("missing part %s", part)
	}
	data, err := readPart(f)
	if err != nil {
		return Slide{}, err
	}

	slide, err := parseSlideXML(data)
	if err != nil {
		return Slide{}, err
	}

	// Image payloads go through the slide's own rels part.
	relsName := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	if len(slide.Images) > 0 {
		rels, err := readRels(parts, relsName)
		if err != nil {
			return Slide{}, err
		}
		for i := range slide.Images {
			img := &slide.Images[i]
			target, ok := rels[img.RelID]
			if !ok {
				// A picture without a resolvable payload still occupies
				// its position; OCR sees no data and yields empty text.
				continue
			}
			mediaName := resolveTarget(path.Dir(part), target)
			mf, ok := parts[mediaName]
			if !ok {
				continue
			}
			payload, err := readPart(mf)
			if err != nil {
				return Slide{}, err
			}
			img.Name = path.Base(mediaName)
			img.Data = payload
		}
	}
	return slide, nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "open part %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "read part %s", f.Name)
	}
	return data, nil
}

func decodeXML(data []byte, v any) error {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

// resolveTarget resolves a relationship target against its source part's
// directory. Targets starting with "/" are archive-absolute; "../" segments
// are cleaned (e.g. "../media/image1.png" from ppt/slides).
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(baseDir, target))
}
