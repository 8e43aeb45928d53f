package httpapi

import (
	"github.com/park285/chess-puzzle-render/internal/runstore"
	"github.com/park285/chess-puzzle-render/internal/sequencer"
	"github.com/park285/chess-puzzle-render/pkg/renderdto"
)

func toRenderResponse(m *sequencer.Manifest) renderdto.RenderResponse {
	out := renderdto.RenderResponse{
		RunID:        m.RunID,
		State:        m.State.String(),
		InitialImage: m.InitialImage,
		Frames:       m.Frames,
		HalfMoves:    make([]renderdto.HalfMove, 0, len(m.HalfMoves)),
		FinalWhite:   m.FinalWhite,
		FinalBlack:   m.FinalBlack,
	}
	for _, hm := range m.HalfMoves {
		out.HalfMoves = append(out.HalfMoves, renderdto.HalfMove{
			Order:    hm.Order,
			Turn:     hm.Turn,
			Color:    hm.Color,
			Move:     hm.Move,
			Tag:      hm.Tag,
			NewTag:   hm.NewTag,
			Captured: hm.Captured,
			Frames:   hm.Frames,
		})
	}
	return out
}

func toRunStatus(rec *runstore.Record) renderdto.RunStatus {
	st := renderdto.RunStatus{
		RunID:     rec.RunID,
		State:     rec.State.String(),
		Error:     rec.Error,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Manifest != nil {
		st.FrameCount = len(rec.Manifest.Frames)
		st.HalfMoves = len(rec.Manifest.HalfMoves)
	}
	return st
}
