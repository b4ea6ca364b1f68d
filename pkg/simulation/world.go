package simulation

import (
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// FlockActor is the single owner of the flock. Messages are handled one at a
// time, so a tick is never observed half done.
//
// Protocol:
//   - *wrapperspb.UInt32Value: advance by Value ticks (0 counts as 1), then push a Snapshot
//   - *structpb.Struct: rebuild the flock from the carried Config
//   - *emptypb.Empty: reply with the current Snapshot as a *structpb.Struct
type FlockActor struct {
	cfg   *Config
	flock *flock.Flock
	// Communication with the renderer, may be nil
	snapshotCh chan<- *Snapshot

	// --- Benchmark Stats ---
	ticksSinceLog int
	droppedFrames int
	lastLogTime   time.Time
}

var _ actor.Actor = (*FlockActor)(nil)

// NewFlockActor creates the simulation unit. The flock itself is built in PreStart.
func NewFlockActor(snapshotCh chan<- *Snapshot, cfg *Config) *FlockActor {
	return &FlockActor{
		cfg:         cfg,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

// Step is the message advancing the flock by n ticks.
func Step(n uint32) *wrapperspb.UInt32Value { return wrapperspb.UInt32(n) }

// SnapshotRequest is the Ask message answered with the current snapshot.
func SnapshotRequest() *emptypb.Empty { return &emptypb.Empty{} }

func (w *FlockActor) PreStart(ctx *actor.Context) error {
	f, err := w.cfg.NewFlock()
	if err != nil {
		return fmt.Errorf("failed to build flock: %w", err)
	}
	w.flock = f
	ctx.ActorSystem().Logger().Infof("Flock ready: %d birds, predator=%t, mode=%s",
		f.Size(), w.cfg.WithPredator, f.Options().Mode)
	return nil
}

func (w *FlockActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Info("Flock started")

	// 1. Simulation step, driven by the renderer loop
	case *wrapperspb.UInt32Value:
		n := max(msg.GetValue(), 1)
		for range n {
			w.flock.Evolve()
		}
		w.ticksSinceLog += int(n)
		w.logBenchmarks(ctx)
		w.pushSnapshot()

	// 2. Restart with a new configuration
	case *structpb.Struct:
		w.reset(ctx, msg)

	// 3. Snapshot query
	case *emptypb.Empty:
		reply, err := NewSnapshot(w.flock).ToProto()
		if err != nil {
			// the asker times out
			ctx.Logger().Errorf("snapshot conversion failed: %v", err)
			return
		}
		ctx.Response(reply)

	default:
		ctx.Unhandled()
	}
}

func (w *FlockActor) reset(ctx *actor.ReceiveContext, msg *structpb.Struct) {
	cfg, err := ConfigFromProto(msg)
	if err != nil {
		ctx.Logger().Warnf("ignoring reset: %v", err)
		return
	}
	f, err := cfg.NewFlock()
	if err != nil {
		ctx.Logger().Warnf("ignoring reset: %v", err)
		return
	}
	w.cfg = cfg
	w.flock = f
	ctx.Logger().Infof("Flock reset: %d birds, predator=%t", f.Size(), cfg.WithPredator)
	w.pushSnapshot()
}

func (w *FlockActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if elapsed := time.Since(w.lastLogTime); elapsed >= time.Second {
		stat := w.flock.Statistics()
		ctx.Logger().Infof("📊 TICK RATE: %.1f/sec | Birds: %d | Mean speed: %.2f | Stdev: %s | Dropped frames: %d",
			float64(w.ticksSinceLog)/elapsed.Seconds(), w.flock.Size(), stat.MeanSpeed(), stat.StdevVelocity, w.droppedFrames)
		w.ticksSinceLog = 0
		w.droppedFrames = 0
		w.lastLogTime = time.Now()
	}
}

func (w *FlockActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- NewSnapshot(w.flock):
	default:
		// renderer busy, skip frame
		w.droppedFrames++
	}
}

func (w *FlockActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("Flock is shutdown...")
	return nil
}
