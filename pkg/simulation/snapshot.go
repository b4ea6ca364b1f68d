package simulation

import (
	"encoding/json"
	"fmt"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// BirdView is the read-only render state of one bird.
type BirdView struct {
	Position geometry.Vector2D `json:"position"`
	Velocity geometry.Vector2D `json:"velocity"`
	Heading  float64           `json:"heading"` // radians, atan2(vy, vx)
}

// Snapshot is what renderers consume once per tick. It shares no memory
// with the flock that produced it.
type Snapshot struct {
	Tick         uint64          `json:"tick"`
	CanvasWidth  float64         `json:"canvasWidth"`
	CanvasHeight float64         `json:"canvasHeight"`
	Birds        []BirdView      `json:"birds"`
	Predator     *BirdView       `json:"predator,omitempty"`
	Statistic    flock.Statistic `json:"statistic"`
}

func newBirdView(b flock.Bird) BirdView {
	return BirdView{Position: b.Position, Velocity: b.Velocity, Heading: b.Heading()}
}

// NewSnapshot captures the current state of f.
func NewSnapshot(f *flock.Flock) *Snapshot {
	opts := f.Options()
	birds := f.Birds()
	s := &Snapshot{
		Tick:         f.Ticks(),
		CanvasWidth:  opts.CanvasWidth,
		CanvasHeight: opts.CanvasHeight,
		Birds:        make([]BirdView, 0, len(birds)),
		Statistic:    flock.ComputeStatistic(birds),
	}
	for _, b := range birds {
		s.Birds = append(s.Birds, newBirdView(b))
	}
	if p, ok := f.Predator(); ok {
		v := newBirdView(p)
		s.Predator = &v
	}
	return s
}

// ToProto converts the snapshot into a structpb.Struct envelope.
func (s *Snapshot) ToProto() (*structpb.Struct, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("failed to convert snapshot to proto: %w", err)
	}
	return msg, nil
}

// SnapshotFromProto decodes a snapshot produced by ToProto.
func SnapshotFromProto(msg *structpb.Struct) (*Snapshot, error) {
	b, err := protojson.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to convert proto to snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &s, nil
}
