//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/markkurossi/sop/conf"
	"github.com/markkurossi/sop/dealer"
	"github.com/markkurossi/sop/dist"
	"github.com/markkurossi/sop/timing"
)

var dealCmd = &cobra.Command{
	Use:   "deal [scenario.yaml]",
	Short: "Run the dealer and serve the node bundles over TCP",
	Long: `Preprocess the scenario and serve the bundles to the nodes. The
dealer runs until all nodes have fetched their bundles or until it is
interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSetup(args, scenarioArgs)
		if err != nil {
			return err
		}
		return deal(s)
	},
}

func init() {
	addScenarioFlags(dealCmd)
	dealCmd.Flags().StringP("listen", "l", "",
		"Listen address (default "+conf.DefaultListen+")")
	err := viper.BindPFlag("listen", dealCmd.Flags().Lookup("listen"))
	handleBindingError(err, "listen")

	rootCmd.AddCommand(dealCmd)
}

func deal(s *setup) error {
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
	t.Sample("Deal")

	server, err := dist.NewServer(params.Listen, s.grp, bundles)
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case sig := <-sigs:
			jww.INFO.Printf("Received %s signal...\n", sig)
			break loop
		case <-ticker.C:
			if server.Served() >= len(bundles) {
				break loop
			}
		}
	}
	if err := server.Close(); err != nil {
		jww.DEBUG.Printf("Dealer: close: %s\n", err)
	}
	t.Sample("Serve", timing.FileSize(server.Stats().Sum()).String())
	t.Print(os.Stdout, server.Stats())

	return nil
}
