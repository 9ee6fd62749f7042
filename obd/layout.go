package obd

import (
	"fmt"

	"github.com/tibia-tools/assets/binstream"
	"github.com/tibia-tools/assets/thing"
)

// readLayout parses one frame group's width/height/exactSize/layers/
// pattern/frames fields. It does not read the animation descriptor:
// V2/V3 callers read one with readAnimationDescriptor when frames>1,
// and V1 bodies carry none. patternZ is read only when carriesPatternZ
// is set; V1 passes the DAT texture pattern block's own gate (client
// version 755 onward, C6), V2 and V3 always pass true.
func readLayout(r *binstream.Reader, carriesPatternZ bool) (*thing.FrameGroup, error) {
	g := &thing.FrameGroup{}
	var err error
	if g.Width, err = r.U8(); err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	if g.Height, err = r.U8(); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if thing.HasExplicitExactSize(g.Width, g.Height) {
		if g.ExactSize, err = r.U8(); err != nil {
			return nil, fmt.Errorf("exactSize: %w", err)
		}
	} else {
		g.ExactSize = thing.DefaultExactSize(g.Width, g.Height)
	}
	if g.Layers, err = r.U8(); err != nil {
		return nil, fmt.Errorf("layers: %w", err)
	}
	if g.PatternX, err = r.U8(); err != nil {
		return nil, fmt.Errorf("patternX: %w", err)
	}
	if g.PatternY, err = r.U8(); err != nil {
		return nil, fmt.Errorf("patternY: %w", err)
	}
	if carriesPatternZ {
		if g.PatternZ, err = r.U8(); err != nil {
			return nil, fmt.Errorf("patternZ: %w", err)
		}
	} else {
		g.PatternZ = 1
	}
	if g.Frames, err = r.U8(); err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	return g, nil
}

func writeLayout(w *binstream.Writer, g *thing.FrameGroup, carriesPatternZ bool) {
	w.U8(g.Width)
	w.U8(g.Height)
	if thing.HasExplicitExactSize(g.Width, g.Height) {
		w.U8(g.ExactSize)
	}
	w.U8(g.Layers)
	w.U8(g.PatternX)
	w.U8(g.PatternY)
	if carriesPatternZ {
		patternZ := g.PatternZ
		if patternZ == 0 {
			patternZ = 1
		}
		w.U8(patternZ)
	}
	w.U8(g.Frames)
}

func readAnimationDescriptor(r *binstream.Reader, frames uint8) (*thing.Animation, error) {
	a := &thing.Animation{}
	mode, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("animation mode: %w", err)
	}
	a.Mode = thing.AnimationMode(mode)
	if a.LoopCount, err = r.I32(); err != nil {
		return nil, fmt.Errorf("animation loopCount: %w", err)
	}
	startFrame, err := r.I8()
	if err != nil {
		return nil, fmt.Errorf("animation startFrame: %w", err)
	}
	a.StartFrame = int32(startFrame)
	a.Durations = make([]thing.FrameDuration, frames)
	for i := 0; i < int(frames); i++ {
		min, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("animation duration[%d].min: %w", i, err)
		}
		max, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("animation duration[%d].max: %w", i, err)
		}
		a.Durations[i] = thing.FrameDuration{Min: min, Max: max}
	}
	return a, nil
}

func writeAnimationDescriptor(w *binstream.Writer, a *thing.Animation) {
	w.U8(uint8(a.Mode))
	w.I32(a.LoopCount)
	w.I8(int8(a.StartFrame))
	for _, d := range a.Durations {
		w.U32(d.Min)
		w.U32(d.Max)
	}
}

// defaultAnimation synthesises an unanimated-descriptor durations list
// for V1 bodies, which never carry an explicit animation descriptor.
func defaultAnimation(frames uint8, min, max uint32) *thing.Animation {
	durations := make([]thing.FrameDuration, frames)
	for i := range durations {
		durations[i] = thing.FrameDuration{Min: min, Max: max}
	}
	return &thing.Animation{Durations: durations}
}
