package renderdto

import "time"

type HalfMove struct {
	Order    int      `json:"order"`
	Turn     int      `json:"turn"`
	Color    string   `json:"color"`
	Move     string   `json:"move"`
	Tag      string   `json:"tag"`
	NewTag   string   `json:"new_tag"`
	Captured string   `json:"captured,omitempty"`
	Frames   []string `json:"frames"`
}

// RenderResponse answers POST /v1/render.
type RenderResponse struct {
	RunID        string     `json:"run_id"`
	State        string     `json:"state"`
	InitialImage string     `json:"initial_image"`
	Frames       []string   `json:"frames"`
	HalfMoves    []HalfMove `json:"half_moves"`
	FinalWhite   []string   `json:"final_white"`
	FinalBlack   []string   `json:"final_black"`
}

// RunStatus answers GET /v1/runs/{id}.
type RunStatus struct {
	RunID      string    `json:"run_id"`
	State      string    `json:"state"`
	FrameCount int       `json:"frame_count"`
	HalfMoves  int       `json:"half_moves"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type RunList struct {
	Runs []RunStatus `json:"runs"`
}

type Health struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}
