package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/types/known/structpb"
)

const askTimeout = 5 * time.Second

// Report is one line of headless output.
type Report struct {
	Tick          uint64      `json:"tick"`
	Birds         int         `json:"birds"`
	MeanVelocity  [2]float64  `json:"meanVelocity"`
	StdevVelocity [2]float64  `json:"stdevVelocity"`
	Predator      *[2]float64 `json:"predator,omitempty"`
}

func newReport(s *Snapshot) Report {
	r := Report{
		Tick:          s.Tick,
		Birds:         len(s.Birds),
		MeanVelocity:  [2]float64{s.Statistic.MeanVelocity.X, s.Statistic.MeanVelocity.Y},
		StdevVelocity: [2]float64{s.Statistic.StdevVelocity.X, s.Statistic.StdevVelocity.Y},
	}
	if s.Predator != nil {
		r.Predator = &[2]float64{s.Predator.Position.X, s.Predator.Position.Y}
	}
	return r
}

// AskSnapshot queries the flock actor for its current state.
func AskSnapshot(ctx context.Context, pid *actor.PID) (*Snapshot, error) {
	reply, err := actor.Ask(ctx, pid, SnapshotRequest(), askTimeout)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	msg, ok := reply.(*structpb.Struct)
	if !ok {
		return nil, fmt.Errorf("unexpected snapshot reply %T", reply)
	}
	return SnapshotFromProto(msg)
}

// nextBatch is the number of ticks to request in one step message after done
// of ticks: up to the next report, and never more than a step message can carry.
func nextBatch(done, ticks, reportEvery int) int {
	batch := ticks - done
	if reportEvery > 0 {
		batch = min(batch, reportEvery-done%reportEvery)
	}
	return int(min(uint64(batch), math.MaxUint32))
}

// RunHeadless advances the flock by ticks steps and writes one JSON Report
// line to out every reportEvery ticks, plus one for the final state.
// reportEvery <= 0 reports only the final state.
func RunHeadless(ctx context.Context, pid *actor.PID, ticks, reportEvery int, out io.Writer) error {
	enc := json.NewEncoder(out)
	report := func() error {
		s, err := AskSnapshot(ctx, pid)
		if err != nil {
			return err
		}
		return enc.Encode(newReport(s))
	}

	done := 0
	for done < ticks {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := nextBatch(done, ticks, reportEvery)
		if err := actor.Tell(ctx, pid, Step(uint32(batch))); err != nil {
			return fmt.Errorf("step failed: %w", err)
		}
		done += batch
		// mailbox order guarantees the step is applied before the ask
		if reportEvery > 0 && done < ticks && done%reportEvery == 0 {
			if err := report(); err != nil {
				return err
			}
		}
	}
	return report()
}
