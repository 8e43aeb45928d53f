package board

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/beevik/etree"
)

const (
	WhiteGroupID = "whitepieces"
	BlackGroupID = "blackpieces"
)

var (
	lightSquareFill = "#e9cfa3"
	darkSquareFill  = "#bb8860"
)

// Template is the background board document. It is parsed once and never
// modified; callers receive copies.
type Template struct {
	Path string

	doc        *etree.Document
	background []byte
}

// LoadTemplate reads an SVG board template from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateLoadError{Path: path, Err: err}
	}
	return ParseTemplate(path, data)
}

// ParseTemplate parses template bytes. The document must carry the
// whitepieces and blackpieces groups; any pieces already inside them are dropped.
func ParseTemplate(name string, data []byte) (*Template, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &TemplateLoadError{Path: name, Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil, &TemplateLoadError{Path: name, Err: errors.New("root element is not <svg>")}
	}
	for _, id := range []string{WhiteGroupID, BlackGroupID} {
		group := findGroup(doc, id)
		if group == nil {
			return nil, &TemplateLoadError{Path: name, Err: fmt.Errorf("missing <g id=%q>", id)}
		}
		for _, child := range group.ChildElements() {
			group.RemoveChild(child)
		}
	}

	bg := doc.Copy()
	for _, path := range []string{"//defs", "//symbol", "//g[@id='" + WhiteGroupID + "']", "//g[@id='" + BlackGroupID + "']"} {
		for _, el := range bg.FindElements(path) {
			if parent := el.Parent(); parent != nil {
				parent.RemoveChild(el)
			}
		}
	}
	background, err := bg.WriteToBytes()
	if err != nil {
		return nil, &TemplateLoadError{Path: name, Err: err}
	}

	return &Template{Path: name, doc: doc, background: background}, nil
}

// DefaultTemplate builds a plain two-tone board sized for squareSize.
func DefaultTemplate(squareSize int) *Template {
	g := NewGeometry(squareSize)
	size := strconv.Itoa(g.BoardSize())

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	root.CreateAttr("xmlns:xlink", "http://www.w3.org/1999/xlink")
	root.CreateAttr("width", size)
	root.CreateAttr("height", size)
	root.CreateAttr("viewBox", "0 0 "+size+" "+size)

	squares := root.CreateElement("g")
	squares.CreateAttr("id", "squares")
	for _, sq := range AllSquares() {
		p := g.ToPixel(sq)
		fill := lightSquareFill
		if (sq.FileIndex()+sq.RankIndex()-1)%2 == 0 {
			fill = darkSquareFill
		}
		rect := squares.CreateElement("rect")
		rect.CreateAttr("x", strconv.Itoa(p.X))
		rect.CreateAttr("y", strconv.Itoa(p.Y))
		rect.CreateAttr("width", strconv.Itoa(g.SquareSize))
		rect.CreateAttr("height", strconv.Itoa(g.SquareSize))
		rect.CreateAttr("fill", fill)
	}
	root.CreateElement("g").CreateAttr("id", WhiteGroupID)
	root.CreateElement("g").CreateAttr("id", BlackGroupID)

	data, err := doc.WriteToBytes()
	if err != nil {
		panic(fmt.Sprintf("default template: %v", err))
	}
	tpl, err := ParseTemplate("builtin", data)
	if err != nil {
		panic(fmt.Sprintf("default template: %v", err))
	}
	return tpl
}

// Background returns the template without piece groups or definitions, ready
// for rasterization.
func (t *Template) Background() []byte { return t.background }

// Document returns a fresh copy of the template document.
func (t *Template) Document() *etree.Document { return t.doc.Copy() }

// PieceGroup finds the piece group for c in a document copied from a template.
func PieceGroup(doc *etree.Document, c Color) *etree.Element {
	if c == Black {
		return findGroup(doc, BlackGroupID)
	}
	return findGroup(doc, WhiteGroupID)
}

func findGroup(doc *etree.Document, id string) *etree.Element {
	return doc.FindElement("//g[@id='" + id + "']")
}
