package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/precoding-evaluator/internal/campaign"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

func curve(t *testing.T, label string, snr, values []float64) *model.PerformanceCurve {
	t.Helper()
	sweep, err := model.NewSNRSweep(snr)
	require.NoError(t, err)
	c, err := model.NewPerformanceCurve(label, sweep, values)
	require.NoError(t, err)
	return c
}

func TestWriteCSVLongFormat(t *testing.T) {
	series := model.Series{
		curve(t, "MRT", []float64{-5, 0}, []float64{0.5, 1.25}),
		curve(t, "ZF", []float64{-5, 0}, []float64{0.25, 2}),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, series))

	want := "label,snr_db,bits_per_hz\n" +
		"MRT,-5,0.5\n" +
		"MRT,0,1.25\n" +
		"ZF,-5,0.25\n" +
		"ZF,0,2\n"
	require.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	series := model.Series{curve(t, "ZF", []float64{0, 10}, []float64{2, 6.5})}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, series))

	var decoded []struct {
		Label     string    `json:"label"`
		SNRdB     []float64 `json:"snrDb"`
		BitsPerHz []float64 `json:"bitsPerHz"`
		Peak      float64   `json:"peakBitsPerHz"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "ZF", decoded[0].Label)
	require.Equal(t, []float64{0, 10}, decoded[0].SNRdB)
	require.Equal(t, 6.5, decoded[0].Peak)
}

func TestWritePassCSV(t *testing.T) {
	epoch := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	points := []campaign.PassPoint{
		{Epoch: epoch, Label: "zf", MinElevationDeg: 12.3456, Skipped: true, Reason: "collaborator_failure"},
		{Epoch: epoch.Add(time.Minute), Label: "zf", MinElevationDeg: 45, BitsPerHz: 3.5},
		{Epoch: epoch.Add(2 * time.Minute), Label: "zf", MinElevationDeg: math.NaN(), Skipped: true, Reason: "collaborator_failure"},
	}
	var buf bytes.Buffer
	require.NoError(t, WritePassCSV(&buf, points))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{
		"epoch,label,min_elevation_deg,bits_per_hz,status",
		"2025-03-01T12:00:00Z,zf,12.35,,collaborator_failure",
		"2025-03-01T12:01:00Z,zf,45.00,3.5,ok",
		"2025-03-01T12:02:00Z,zf,,,collaborator_failure",
	}, lines)
}

func TestWriteSummary(t *testing.T) {
	sweep, err := model.NewSNRSweep([]float64{0})
	require.NoError(t, err)
	cfg, err := model.ScenarioSpec{HorizontalElements: 1, VerticalElements: 1, Users: 1, Method: "MRT"}.Build()
	require.NoError(t, err)
	h, err := model.NewChannelMatrix(1, 1, []complex128{1})
	require.NoError(t, err)
	w, err := model.NewWeightMatrix(1, 1, []complex128{1})
	require.NoError(t, err)
	res := model.NewScenarioResult(cfg, h, w, sweep, curve(t, "MRT", []float64{0}, []float64{1}))

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, []campaign.Outcome{
		{Index: 0, Name: "good", Method: "MRT", Result: res},
		{Index: 1, Method: "XYZ", Err: errors.New("invalid configuration")},
	}))
	out := buf.String()
	require.Contains(t, out, "SCENARIO")
	require.Contains(t, out, "good")
	require.Contains(t, out, "1.0000")
	require.Contains(t, out, "#1")
	require.Contains(t, out, "invalid configuration")
}
