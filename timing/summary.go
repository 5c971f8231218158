//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package timing

import (
	"io"
	"strconv"
	"time"

	"github.com/markkurossi/tabulate"
	"github.com/montanaflynn/stats"
)

// Summary describes the distribution of repeated phase durations.
type Summary struct {
	Label  string
	Count  int
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
	StdDev time.Duration
}

// Summarize computes the summary of the durations.
func Summarize(label string, durations []time.Duration) (*Summary, error) {
	data := make(stats.Float64Data, len(durations))
	for idx, d := range durations {
		data[idx] = float64(d)
	}
	result := &Summary{
		Label: label,
		Count: len(durations),
	}

	values := []struct {
		f func(stats.Float64Data) (float64, error)
		d *time.Duration
	}{
		{stats.Min, &result.Min},
		{stats.Max, &result.Max},
		{stats.Mean, &result.Mean},
		{stats.Median, &result.Median},
		{stats.StandardDeviation, &result.StdDev},
	}
	for _, v := range values {
		f, err := v.f(data)
		if err != nil {
			return nil, err
		}
		*v.d = time.Duration(f)
	}
	return result, nil
}

// PrintSummaries prints the summaries as a table to w.
func PrintSummaries(w io.Writer, summaries []*Summary) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Phase").SetAlign(tabulate.ML)
	tab.Header("N").SetAlign(tabulate.MR)
	tab.Header("Min").SetAlign(tabulate.MR)
	tab.Header("Mean").SetAlign(tabulate.MR)
	tab.Header("Median").SetAlign(tabulate.MR)
	tab.Header("StdDev").SetAlign(tabulate.MR)
	tab.Header("Max").SetAlign(tabulate.MR)

	for _, s := range summaries {
		row := tab.Row()
		row.Column(s.Label).SetFormat(tabulate.FmtBold)
		row.Column(strconv.Itoa(s.Count))
		row.Column(s.Min.String())
		row.Column(s.Mean.String())
		row.Column(s.Median.String())
		row.Column(s.StdDev.String())
		row.Column(s.Max.String())
	}
	tab.Print(w)
}
