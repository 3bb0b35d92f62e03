// Package report hands evaluated curves to presentation tools. It writes
// data only; rendering charts is left to whatever consumes the files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/signalsfoundry/precoding-evaluator/internal/campaign"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

// WriteCSV emits series in long format: one row per (label, snr_db,
// bits_per_hz) point.
func WriteCSV(w io.Writer, series model.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"label", "snr_db", "bits_per_hz"}); err != nil {
		return err
	}
	for _, curve := range series {
		for i := 0; i < curve.Len(); i++ {
			snr, v := curve.Point(i)
			if err := cw.Write([]string{curve.Label(), formatFloat(snr), formatFloat(v)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

type curveJSON struct {
	Label     string    `json:"label"`
	SNRdB     []float64 `json:"snrDb"`
	BitsPerHz []float64 `json:"bitsPerHz"`
	Peak      float64   `json:"peakBitsPerHz"`
}

// WriteJSON emits series as an indented JSON array of curves.
func WriteJSON(w io.Writer, series model.Series) error {
	out := make([]curveJSON, 0, len(series))
	for _, curve := range series {
		out = append(out, curveJSON{
			Label:     curve.Label(),
			SNRdB:     curve.SNRdB(),
			BitsPerHz: curve.SpectralEfficiency(),
			Peak:      curve.Peak(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WritePassCSV emits one row per pass point. Skipped points leave
// bits_per_hz empty.
func WritePassCSV(w io.Writer, points []campaign.PassPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"epoch", "label", "min_elevation_deg", "bits_per_hz", "status"}); err != nil {
		return err
	}
	for _, p := range points {
		value, status := formatFloat(p.BitsPerHz), "ok"
		if p.Skipped {
			value, status = "", p.Reason
		}
		elev := ""
		if !math.IsNaN(p.MinElevationDeg) {
			elev = strconv.FormatFloat(p.MinElevationDeg, 'f', 2, 64)
		}
		if err := cw.Write([]string{p.Epoch.UTC().Format(time.RFC3339), p.Label, elev, value, status}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary prints one aligned line per campaign outcome.
func WriteSummary(w io.Writer, outcomes []campaign.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tMETHOD\tSTATUS\tPEAK_BITS_PER_HZ")
	for _, o := range outcomes {
		name := o.Name
		if name == "" {
			name = fmt.Sprintf("#%d", o.Index)
		}
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\n", name, o.Method, o.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\tok\t%s\n", name, o.Method, strconv.FormatFloat(o.Result.Curve().Peak(), 'f', 4, 64))
	}
	return tw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
