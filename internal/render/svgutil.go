package render

import "bytes"

// styleFixes rewrites style spellings found in hand-edited board and piece
// assets that oksvg rejects or misreads.
var styleFixes = [][2]string{
	{"fill:000000", "fill:#000000"},
	{"fill: 000000", "fill:#000000"},
	{"stroke:000000", "stroke:#000000"},
	{"stroke: 000000", "stroke:#000000"},
	{"fill: #", "fill:#"},
	{"stroke: #", "stroke:#"},
	{"stop-color: #", "stop-color:#"},
	{"fill:transparent", "fill:none"},
	{`fill="transparent"`, `fill="none"`},
}

func sanitizeSVG(svg []byte) []byte {
	for _, fix := range styleFixes {
		if bytes.Contains(svg, []byte(fix[0])) {
			svg = bytes.ReplaceAll(svg, []byte(fix[0]), []byte(fix[1]))
		}
	}
	return svg
}
