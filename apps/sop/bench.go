//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/markkurossi/sop/dealer"
	"github.com/markkurossi/sop/eval"
	"github.com/markkurossi/sop/node"
	"github.com/markkurossi/sop/timing"
)

var benchRuns int

var benchCmd = &cobra.Command{
	Use:   "bench [scenario.yaml]",
	Short: "Benchmark preprocessing and evaluation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSetup(args, scenarioArgs)
		if err != nil {
			return err
		}
		return bench(s, benchRuns)
	},
}

func init() {
	addScenarioFlags(benchCmd)
	benchCmd.Flags().IntVarP(&benchRuns, "runs", "r", 100,
		"Number of benchmark runs")
	rootCmd.AddCommand(benchCmd)
}

func bench(s *setup, runs int) error {
	if runs < 1 {
		return errors.Errorf("invalid number of runs: %d", runs)
	}
	_, config, err := getParams()
	if err != nil {
		return err
	}
	printSetup(s)

	expected, err := s.Reference()
	if err != nil {
		return err
	}

	var deal, assign, evaluate []time.Duration

	for i := 0; i < runs; i++ {
		start := time.Now()
		b, err := dealer.Preprocess(s.inputs, s.terms, s.grp,
			s.Source(config))
		if err != nil {
			return err
		}
		deal = append(deal, time.Since(start))

		start = time.Now()
		bundles, err := dealer.Assign(b, s.terms, s.nodes)
		if err != nil {
			return err
		}
		var cluster node.Cluster
		for id, nb := range bundles {
			n := node.New(id)
			n.Assign(nb)
			cluster = append(cluster, n)
		}
		assign = append(assign, time.Since(start))

		start = time.Now()
		result, err := eval.Evaluate(s.grp, cluster, s.terms)
		if err != nil {
			return err
		}
		evaluate = append(evaluate, time.Since(start))

		if result.Cmp(expected) != 0 {
			return errors.Errorf("run %d: result %v does not match %v",
				i, result, expected)
		}
	}

	var summaries []*timing.Summary
	for _, phase := range []struct {
		label     string
		durations []time.Duration
	}{
		{"Deal", deal},
		{"Assign", assign},
		{"Eval", evaluate},
	} {
		summary, err := timing.Summarize(phase.label, phase.durations)
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}
	timing.PrintSummaries(os.Stdout, summaries)
	fmt.Printf("Result: %v\n", expected)

	return nil
}
