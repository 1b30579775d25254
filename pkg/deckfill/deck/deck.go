// Package deck loads a PowerPoint template and edits targeted table cells
// and text runs in place. Every part of the container that is not explicitly
// written stays byte-for-byte identical, so the output deck has the same
// slides, shapes and table dimensions as the template.
package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"deckfill/pkg/deckfill/models"
)

const presentationPart = "ppt/presentation.xml"
const presentationRels = "ppt/_rels/presentation.xml.rels"

// part is one file of the pptx container, kept verbatim until edited.
type part struct {
	name   string
	data   []byte
	method uint16
}

// Deck is the loaded template. Slides are addressable by their position in
// presentation order, which may differ from part numbering.
type Deck struct {
	parts  []part
	partIx map[string]int
	slides []string
}

// Open reads a pptx template into memory.
func Open(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template %s: %w", path, models.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read template: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, models.ErrInvalidFormat)
	}

	d := &Deck{partIx: make(map[string]int, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		d.partIx[f.Name] = len(d.parts)
		d.parts = append(d.parts, part{name: f.Name, data: content, method: f.Method})
	}

	if err := d.resolveSlides(); err != nil {
		return nil, err
	}
	return d, nil
}

// resolveSlides orders slide parts by the presentation's sldIdLst, joining
// the relationship ids against the presentation rels part.
func (d *Deck) resolveSlides() error {
	presXML, ok := d.partData(presentationPart)
	if !ok {
		return fmt.Errorf("no %s part: %w", presentationPart, models.ErrInvalidFormat)
	}
	relsXML, ok := d.partData(presentationRels)
	if !ok {
		return fmt.Errorf("no %s part: %w", presentationRels, models.ErrInvalidFormat)
	}

	relIDs := parseSlideIDList(presXML)
	targets := parseRelationships(relsXML)

	for _, rID := range relIDs {
		target, ok := targets[rID]
		if !ok {
			return fmt.Errorf("slide relationship %s unresolved: %w", rID, models.ErrInvalidFormat)
		}
		name := resolvePartPath(target, "ppt")
		if _, ok := d.partIx[name]; !ok {
			return fmt.Errorf("slide part %s missing: %w", name, models.ErrInvalidFormat)
		}
		d.slides = append(d.slides, name)
	}
	if len(d.slides) == 0 {
		return fmt.Errorf("presentation has no slides: %w", models.ErrInvalidFormat)
	}
	return nil
}

// SlideCount returns the number of slides in presentation order.
func (d *Deck) SlideCount() int {
	return len(d.slides)
}

func (d *Deck) slideData(slide int) ([]byte, error) {
	if slide < 0 || slide >= len(d.slides) {
		return nil, fmt.Errorf("slide index %d out of range (deck has %d slides)", slide, len(d.slides))
	}
	return d.parts[d.partIx[d.slides[slide]]].data, nil
}

func (d *Deck) setSlideData(slide int, data []byte) {
	d.parts[d.partIx[d.slides[slide]]].data = data
}

func (d *Deck) partData(name string) ([]byte, bool) {
	ix, ok := d.partIx[name]
	if !ok {
		return nil, false
	}
	return d.parts[ix].data, true
}

// parseSlideIDList extracts the relationship ids of sldIdLst in order.
func parseSlideIDList(data []byte) []string {
	var ids []string
	inList := false

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sldIdLst":
				inList = true
			case "sldId":
				if !inList {
					continue
				}
				for _, attr := range t.Attr {
					// The rel reference is the namespaced id attribute;
					// the plain id attribute is the slide's own number.
					if attr.Name.Local == "id" && strings.Contains(attr.Name.Space, "relationships") {
						ids = append(ids, attr.Value)
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "sldIdLst" {
				inList = false
			}
		}
	}
	return ids
}

// parseRelationships maps relationship ids to part targets.
func parseRelationships(data []byte) map[string]string {
	result := make(map[string]string)
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rID, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rID = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if rID != "" && target != "" {
				result[rID] = target
			}
		}
	}
	return result
}

// resolvePartPath resolves a rels target against its base directory.
func resolvePartPath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	for strings.HasPrefix(target, "../") {
		target = strings.TrimPrefix(target, "../")
		if i := strings.LastIndex(baseDir, "/"); i >= 0 {
			baseDir = baseDir[:i]
		} else {
			baseDir = ""
		}
	}
	if baseDir == "" {
		return target
	}
	return baseDir + "/" + target
}
