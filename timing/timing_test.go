//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package timing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/sop/p2p"
)

func TestFileSize(t *testing.T) {
	tests := []struct {
		v FileSize
		s string
	}{
		{0, "0B"},
		{1000, "1000B"},
		{1001, "1kB"},
		{2500000, "2MB"},
		{3000000001, "3GB"},
		{4000000000001, "4TB"},
	}
	for _, test := range tests {
		require.Equal(t, test.s, test.v.String())
	}
}

func TestTiming(t *testing.T) {
	timing := New()
	require.Equal(t, time.Duration(0), timing.Total())

	var out bytes.Buffer
	timing.Print(&out, p2p.NewIOStats())
	require.Zero(t, out.Len())

	deal := timing.Sample("Deal", "4 shares")
	deal.SubSample("Shares", time.Now())
	deal.AbsSubSample("Gammas", time.Millisecond)
	timing.Sample("Eval", "2 terms")

	require.Len(t, timing.Samples, 2)
	require.Equal(t, deal.End, timing.Samples[1].Start)
	require.Equal(t, time.Millisecond, deal.Samples[1].Duration())
	require.True(t, timing.Total() >= 0)

	stats := p2p.NewIOStats()
	stats.Sent.Add(1500)
	stats.Recvd.Add(500)
	stats.Flushed.Add(3)

	timing.Print(&out, stats)
	report := out.String()
	require.Contains(t, report, "Deal")
	require.Contains(t, report, "Gammas")
	require.Contains(t, report, "Eval")
	require.Contains(t, report, "2kB")
	require.Contains(t, report, "75.00%")
}

func TestSummarize(t *testing.T) {
	durations := []time.Duration{
		4 * time.Millisecond,
		1 * time.Millisecond,
		3 * time.Millisecond,
		2 * time.Millisecond,
	}
	s, err := Summarize("Eval", durations)
	require.NoError(t, err)
	require.Equal(t, 4, s.Count)
	require.Equal(t, time.Millisecond, s.Min)
	require.Equal(t, 4*time.Millisecond, s.Max)
	require.Equal(t, 2500*time.Microsecond, s.Mean)
	require.Equal(t, 2500*time.Microsecond, s.Median)
	require.True(t, s.StdDev > time.Millisecond && s.StdDev < 2*time.Millisecond,
		"stddev %v", s.StdDev)

	var out bytes.Buffer
	PrintSummaries(&out, []*Summary{s})
	require.Contains(t, out.String(), "Eval")
	require.Contains(t, out.String(), "2.5ms")

	_, err = Summarize("Empty", nil)
	require.Error(t, err)
}
