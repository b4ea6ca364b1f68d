package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeReports(t *testing.T, out string) []Report {
	t.Helper()
	var reports []Report
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var r Report
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		reports = append(reports, r)
	}
	return reports
}

func TestRunHeadless_ReportsEveryN(t *testing.T) {
	ctx, pid := spawnFlock(t, nil, testConfig())

	var out bytes.Buffer
	require.NoError(t, RunHeadless(ctx, pid, 25, 10, &out))

	reports := decodeReports(t, out.String())
	require.Len(t, reports, 3)
	assert.Equal(t, uint64(10), reports[0].Tick)
	assert.Equal(t, uint64(20), reports[1].Tick)
	assert.Equal(t, uint64(25), reports[2].Tick)
	for _, r := range reports {
		assert.Equal(t, 25, r.Birds)
		assert.NotNil(t, r.Predator)
	}
}

func TestRunHeadless_FinalOnly(t *testing.T) {
	cfg := testConfig()
	cfg.WithPredator = false
	ctx, pid := spawnFlock(t, nil, cfg)

	var out bytes.Buffer
	require.NoError(t, RunHeadless(ctx, pid, 7, 0, &out))

	reports := decodeReports(t, out.String())
	require.Len(t, reports, 1)
	assert.Equal(t, uint64(7), reports[0].Tick)
	assert.Nil(t, reports[0].Predator)
}

func TestRunHeadless_ExactMultipleNotDuplicated(t *testing.T) {
	ctx, pid := spawnFlock(t, nil, testConfig())

	var out bytes.Buffer
	require.NoError(t, RunHeadless(ctx, pid, 20, 10, &out))

	reports := decodeReports(t, out.String())
	require.Len(t, reports, 2)
	assert.Equal(t, uint64(20), reports[1].Tick)
}

func TestRunHeadless_CancelledContext(t *testing.T) {
	ctx, pid := spawnFlock(t, nil, testConfig())
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	var out bytes.Buffer
	assert.ErrorIs(t, RunHeadless(cancelled, pid, 10, 1, &out), context.Canceled)
}

func TestNextBatch(t *testing.T) {
	tests := []struct {
		name        string
		done        int
		ticks       int
		reportEvery int
		want        int
	}{
		{"up to the next report", 0, 25, 10, 10},
		{"last partial batch", 20, 25, 10, 5},
		{"final only", 0, 7, 0, 7},
		{"capped at the message range", 0, math.MaxUint32 + 10, 0, math.MaxUint32},
		{"rest after a capped batch", math.MaxUint32, math.MaxUint32 + 10, 0, 10},
		{"capped below a long report interval", 0, math.MaxUint32 * 3, math.MaxUint32 + 5, math.MaxUint32},
		{"lands on a long report interval", math.MaxUint32, math.MaxUint32 * 3, math.MaxUint32 + 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextBatch(tt.done, tt.ticks, tt.reportEvery))
		})
	}
}
