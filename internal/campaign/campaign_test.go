package campaign

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/core"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

const labCampaign = `
name: lab
channel:
  model: rayleigh
  seed: 42
sweep:
  startDb: -10
  stopDb: 10
  stepDb: 5
parallelism: 2
scenarios:
  - name: mrt-full
    horizontalElementsCount: 4
    verticalElementsCount: 4
    nUsers: 4
    beamformerMethod: MRT
  - name: zf-subsets
    horizontalElementsCount: 2
    verticalElementsCount: 2
    nUsers: 2
    beamformerMethod: ZF
    allocationMatrix:
      subsets: [[0, 1, 2], [1, 2, 3]]
  - name: broken
    horizontalElementsCount: 2
    verticalElementsCount: 2
    nUsers: 2
    beamformerMethod: XYZ
pass:
  start: 2021-10-02T00:00:00Z
  duration: 10m
  step: 1m
  referenceSnrDb: 5
`

func TestLoadCampaignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(labCampaign), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "lab", f.Name)
	require.Equal(t, "rayleigh", f.Channel.Model)
	require.EqualValues(t, 42, f.Channel.Seed)
	require.Len(t, f.Scenarios, 3)
	require.Equal(t, [][]int{{0, 1, 2}, {1, 2, 3}}, f.Scenarios[1].Allocation.Subsets)

	sweep, err := f.Sweep.Build()
	require.NoError(t, err)
	require.Equal(t, []float64{-10, -5, 0, 5}, sweep.Values())

	require.NotNil(t, f.Pass)
	pass, err := f.Pass.PassConfig()
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, pass.Duration)
	require.Equal(t, time.Minute, pass.Step)
	require.Equal(t, 5.0, pass.ReferenceSNRDB)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"no scenarios": "name: x\n",
		"unknown key":  "scenarios:\n  - nUsers: 1\n    beamformer: MRT\n",
		"negative":     "parallelism: -1\nscenarios:\n  - nUsers: 1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			require.Error(t, err)
			require.True(t, errors.Is(err, model.ErrInvalidConfiguration), "err = %v", err)
		})
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	f, err := Parse(strings.NewReader(labCampaign))
	require.NoError(t, err)
	ch, err := channel.FromSpec(f.Channel)
	require.NoError(t, err)
	sweep, err := f.Sweep.Build()
	require.NoError(t, err)

	runner := NewRunner(core.NewEvaluator(ch), WithParallelism(f.Parallelism))
	outcomes := runner.Run(context.Background(), f.Scenarios, sweep)

	require.Len(t, outcomes, 3)
	require.Equal(t, 1, Failed(outcomes))
	for i, o := range outcomes {
		require.Equal(t, i, o.Index)
		require.Equal(t, f.Scenarios[i].Name, o.Name)
	}
	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	require.ErrorIs(t, outcomes[2].Err, model.ErrInvalidConfiguration)
	require.Nil(t, outcomes[2].Result)
	require.Equal(t, "ZF", outcomes[1].Method)

	series := Series(outcomes)
	require.Equal(t, []string{"mrt-full (MRT)", "zf-subsets (ZF)"}, series.Labels())
	require.Equal(t, sweep.Len(), series[0].Len())
	require.Equal(t, "MRT", outcomes[0].Result.Curve().Label())
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	specs := []model.ScenarioSpec{
		{HorizontalElements: 2, VerticalElements: 2, Users: 2, Method: "MRT"},
		{HorizontalElements: 2, VerticalElements: 2, Users: 2, Method: "ZF"},
	}
	outcomes := NewRunner(core.NewEvaluator(channel.Rayleigh{})).Run(ctx, specs, model.DefaultSNRSweep())
	require.Equal(t, 2, Failed(outcomes))
	for _, o := range outcomes {
		require.ErrorIs(t, o.Err, context.Canceled)
	}
	require.Empty(t, Series(outcomes))
}

func TestRunPassSkipsInvisibleEpochs(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	// Ground track along the equator at 3° of longitude per minute, overhead
	// of the first terminal four minutes in.
	link := channel.LineOfSight{
		Ephemeris: channel.EphemerisFunc(func(at time.Time) (channel.Vec3, error) {
			lon := -12 + 3*at.Sub(start).Minutes()
			return channel.GeodeticToECEF(0, lon, 600), nil
		}),
		Terminals: []channel.Terminal{
			channel.NewTerminal("a", 0, 0, 0),
			channel.NewTerminal("b", 1, -1, 0),
		},
		MinElevationDeg: 30,
	}
	specs := []model.ScenarioSpec{
		{Name: "mrt", HorizontalElements: 2, VerticalElements: 2, Users: 2, Method: "MRT"},
		{Name: "zf", HorizontalElements: 2, VerticalElements: 2, Users: 2, Method: "ZF"},
	}

	runner := NewRunner(core.NewEvaluator(link))
	points, err := runner.RunPass(context.Background(), link, specs, PassConfig{
		Start:          start,
		Duration:       8 * time.Minute,
		Step:           time.Minute,
		ReferenceSNRDB: 10,
	})
	require.NoError(t, err)
	require.Len(t, points, 18)

	first := points[0]
	require.True(t, first.Skipped)
	require.Equal(t, core.OutcomeCollaboratorFailure, first.Reason)
	require.Less(t, first.MinElevationDeg, 30.0)

	for _, p := range points[8:10] {
		require.True(t, p.Epoch.Equal(start.Add(4*time.Minute)))
		require.False(t, p.Skipped, "point %+v", p)
		require.Greater(t, p.BitsPerHz, 0.0)
		require.Greater(t, p.MinElevationDeg, 30.0)
	}
	require.Equal(t, "mrt (MRT)", points[8].Label)
	require.Equal(t, "zf (ZF)", points[9].Label)
}

func TestRunPassRejectsBadInput(t *testing.T) {
	runner := NewRunner(core.NewEvaluator(channel.Rayleigh{}))
	link := channel.LineOfSight{Ephemeris: channel.StaticEphemeris{}}

	_, err := runner.RunPass(context.Background(), link, nil, PassConfig{Step: time.Minute})
	require.ErrorIs(t, err, model.ErrInvalidConfiguration)

	specs := []model.ScenarioSpec{{HorizontalElements: 1, VerticalElements: 1, Users: 1, Method: "MRT"}}
	_, err = runner.RunPass(context.Background(), link, specs, PassConfig{})
	require.ErrorIs(t, err, model.ErrInvalidConfiguration)

	_, err = runner.RunPass(context.Background(), link, []model.ScenarioSpec{{Method: "XYZ"}}, PassConfig{Step: time.Minute})
	require.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestOutcomeLabelAlwaysNamesMethod(t *testing.T) {
	cases := []struct {
		outcome Outcome
		want    string
	}{
		{Outcome{Name: "zf-8x8", Method: "ZF"}, "zf-8x8 (ZF)"},
		{Outcome{Method: "MRT"}, "MRT"},
		{Outcome{Name: "unnamed-method"}, "unnamed-method"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.outcome.Label())
	}
}
