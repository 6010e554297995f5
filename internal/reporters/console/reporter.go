// Package console renders complete reading sets to local terminal output.
package console

import (
	"fmt"
	"io"

	"github.com/movations/rtlweather/internal/reporters"
	"github.com/movations/rtlweather/internal/types"
	"github.com/movations/rtlweather/pkg/config"
	"github.com/movations/rtlweather/pkg/units"
)

// Reporter writes a human-readable summary of each complete reading set.
type Reporter struct {
	cfg config.StationData
	out io.Writer
}

// NewReporter creates a console reporter writing to out.
func NewReporter(cfg config.StationData, out io.Writer) *Reporter {
	return &Reporter{
		cfg: cfg,
		out: out,
	}
}

// Display prints aggregate stats for the reading set. Display is a pure read
// of the snapshot; it has no failure modes beyond the writer itself.
func (r *Reporter) Display(snap types.Snapshot) {
	tempF := units.CToF(snap.TemperatureC + r.cfg.TempOffsetC)

	fmt.Fprintln(r.out, snap.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(r.out, "Temperature:              %.2f F\n", tempF)
	fmt.Fprintf(r.out, "Relative Humidity:        %.2f %%\n", reporters.Mean(snap.Humidity))
	fmt.Fprintf(r.out, "Wind Mean:                %.2f mph\n",
		units.KnotsCorrection(units.MSToMPH(reporters.Mean(snap.WindSpeed))))
	fmt.Fprintf(r.out, "Wind Max:                 %.2f mph\n",
		units.KnotsCorrection(units.MSToMPH(reporters.Max(snap.WindSpeed))))
	fmt.Fprintf(r.out, "Wind Direction:           %.2f deg\n",
		units.CorrectWindDirection(reporters.Max(snap.WindDirection), r.cfg.WindDirCorrection))
}
