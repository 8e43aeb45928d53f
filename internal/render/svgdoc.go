package render

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/park285/chess-puzzle-render/internal/board"
)

// SceneDocument builds the SVG document for a scene: the template with one
// <use> per piece in its color group and the piece art as symbols in <defs>.
func SceneDocument(scene board.Scene) (*etree.Document, error) {
	tpl := scene.Template()
	if tpl == nil {
		return nil, fmt.Errorf("scene has no template")
	}
	doc := tpl.Document()
	root := doc.Root()
	size := strconv.Itoa(scene.Geometry().SquareSize)

	defs := root.CreateElement("defs")
	seen := map[string]bool{}

	for _, p := range scene.All() {
		id := symbolID(p.Kind, p.Color)
		if !seen[id] {
			seen[id] = true
			if err := addSymbol(defs, id, pieceAssetName(p.Kind, p.Color)); err != nil {
				return nil, err
			}
		}
		group := board.PieceGroup(doc, p.Color)
		if group == nil {
			return nil, fmt.Errorf("template %s lost its %s group", tpl.Path, p.Color)
		}
		use := group.CreateElement("use")
		use.CreateAttr("href", "#"+id)
		use.CreateAttr("xlink:href", "#"+id)
		use.CreateAttr("x", strconv.Itoa(p.At.X))
		use.CreateAttr("y", strconv.Itoa(p.At.Y))
		use.CreateAttr("width", size)
		use.CreateAttr("height", size)
		use.CreateAttr("data-tag", p.Tag)
	}

	doc.Indent(2)
	return doc, nil
}

// MarshalSVG returns the scene document as bytes.
func MarshalSVG(scene board.Scene) ([]byte, error) {
	doc, err := SceneDocument(scene)
	if err != nil {
		return nil, err
	}
	return doc.WriteToBytes()
}

// WriteSVG writes the scene document to path.
func (r *Rasterizer) WriteSVG(scene board.Scene, path string) error {
	data, err := MarshalSVG(scene)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func addSymbol(defs *etree.Element, id, asset string) error {
	data, err := pieceFiles.ReadFile(asset)
	if err != nil {
		return fmt.Errorf("read piece asset %s: %w", asset, err)
	}
	src := etree.NewDocument()
	if err := src.ReadFromBytes(data); err != nil {
		return fmt.Errorf("parse piece asset %s: %w", asset, err)
	}
	symbol := defs.CreateElement("symbol")
	symbol.CreateAttr("id", id)
	if vb := src.Root().SelectAttrValue("viewBox", ""); vb != "" {
		symbol.CreateAttr("viewBox", vb)
	}
	for _, child := range src.Root().ChildElements() {
		symbol.AddChild(child.Copy())
	}
	return nil
}
