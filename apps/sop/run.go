//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/markkurossi/sop/dealer"
	"github.com/markkurossi/sop/dist"
	"github.com/markkurossi/sop/eval"
	"github.com/markkurossi/sop/node"
	"github.com/markkurossi/sop/p2p"
	"github.com/markkurossi/sop/timing"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml]",
	Short: "Run the protocol locally",
	Long: `Run the dealer, deliver the bundles to the nodes over in-memory
connections, and reconstruct the result from the node data. The result
is verified against the plaintext sum-of-products.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSetup(args, scenarioArgs)
		if err != nil {
			return err
		}
		return run(s)
	},
}

func init() {
	addScenarioFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func run(s *setup) error {
	params, config, err := getParams()
	if err != nil {
		return err
	}
	printSetup(s)

	t := timing.New()

	d := dealer.New(s.grp, s.Source(config), config)
	b, err := d.Preprocess(s.inputs, s.terms)
	if err != nil {
		return err
	}
	bundles, err := dealer.Assign(b, s.terms, s.nodes)
	if err != nil {
		return err
	}
	t.Sample("Deal", fmt.Sprintf("%d+%d", len(b.Shares), len(b.Gammas)))

	// Local runs fall back to the in-memory store.
	dbParams := params.Database
	dbParams.DevMode = true
	store, err := node.NewStore(dbParams)
	if err != nil {
		return err
	}

	stats := p2p.NewIOStats()
	for id, nb := range bundles {
		received, ioStats, err := deliver(s, nb)
		if err != nil {
			return errors.Wrapf(err, "node %d", id)
		}
		stats = stats.Add(ioStats)
		if err := store.Save(id, received); err != nil {
			return err
		}
	}
	t.Sample("Xfer", timing.FileSize(stats.Sum()).String())

	var cluster node.Cluster
	for id := range bundles {
		n, err := node.Restore(store, id)
		if err != nil {
			return err
		}
		cluster = append(cluster, n)
	}
	t.Sample("Restore", fmt.Sprintf("%d nodes", len(cluster)))

	e := eval.NewEvaluator(s.grp, config)
	result, err := e.Evaluate(cluster, s.terms)
	if err != nil {
		return err
	}
	t.Sample("Eval", fmt.Sprintf("%d terms", len(s.terms)))

	expected, err := s.Reference()
	if err != nil {
		return err
	}

	for id, n := range cluster {
		printNode(n, bundles[id])
	}
	t.Print(os.Stdout, stats)

	fmt.Printf("Result: %v\n", result)
	if result.Cmp(expected) != 0 {
		return errors.Errorf("result %v does not match plaintext %v",
			result, expected)
	}
	return nil
}

// deliver sends the node bundle over an in-memory connection and
// returns the bundle the node received with the dealer's I/O
// statistics.
func deliver(s *setup, nb *node.Bundle) (*node.Bundle, p2p.IOStats, error) {
	dealerConn, nodeConn := p2p.Pipe()

	done := make(chan error)
	go func() {
		done <- dist.SendBundle(dealerConn, s.grp, nb)
	}()
	received, err := dist.ReceiveBundle(nodeConn, s.grp)
	if err != nil {
		// Unblock the sender.
		nodeConn.Close()
		<-done
		dealerConn.Close()
		return nil, dealerConn.Stats, err
	}
	if err := <-done; err != nil {
		nodeConn.Close()
		dealerConn.Close()
		return nil, dealerConn.Stats, err
	}
	nodeConn.Close()
	dealerConn.Close()

	return received, dealerConn.Stats, nil
}
