//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/markkurossi/sop/conf"
	"github.com/markkurossi/sop/dist"
	"github.com/markkurossi/sop/eval"
	"github.com/markkurossi/sop/expr"
	"github.com/markkurossi/sop/group"
	"github.com/markkurossi/sop/node"
)

var (
	nodeID      int
	nodeTimeout time.Duration
	nodeToy     bool
	nodeExpr    string
)

var nodeCmd = &cobra.Command{
	Use:   "node [scenario.yaml]",
	Short: "Fetch and store the bundle of a node",
	Long: `Fetch the node's bundle from the dealer, verify its digest, and
store it in the node store. The terms whose members and gamma the node
holds are evaluated locally.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grp, terms, err := nodeSetup(args)
		if err != nil {
			return err
		}
		return runNode(grp, terms)
	},
}

func init() {
	nodeCmd.Flags().IntVar(&nodeID, "id", 0, "Node ID")
	nodeCmd.Flags().StringP("dealer", "d", "",
		"Dealer address (default "+conf.DefaultDealer+")")
	nodeCmd.Flags().DurationVar(&nodeTimeout, "timeout", time.Minute,
		"Timeout for fetching the bundle")
	nodeCmd.Flags().BoolVar(&nodeToy, "toy", false, "Use the toy group Z_101")
	nodeCmd.Flags().StringVarP(&nodeExpr, "expr", "e", "",
		"Sum-of-products expression")

	err := viper.BindPFlag("dealer", nodeCmd.Flags().Lookup("dealer"))
	handleBindingError(err, "dealer")

	rootCmd.AddCommand(nodeCmd)
}

// nodeSetup resolves the group and the optional terms. Nodes do not
// know the private inputs.
func nodeSetup(args []string) (*group.Group, expr.Terms, error) {
	scenario := new(conf.Scenario)
	if len(args) > 0 {
		var err error
		scenario, err = conf.LoadScenario(args[0])
		if err != nil {
			return nil, nil, err
		}
	}
	var grp *group.Group
	var err error
	if nodeToy {
		grp = group.Toy()
	} else {
		grp, err = scenario.Group()
		if err != nil {
			return nil, nil, err
		}
	}

	var terms expr.Terms
	if len(nodeExpr) > 0 {
		terms, err = expr.Parse(nodeExpr)
	} else if nodeToy && len(args) == 0 {
		terms, err = expr.Parse(toyExpression)
	} else {
		terms, err = scenario.Terms()
	}
	if err != nil {
		return nil, nil, err
	}
	return grp, terms, nil
}

func runNode(grp *group.Group, terms expr.Terms) error {
	params, _, err := getParams()
	if err != nil {
		return err
	}
	if nodeID < 0 {
		return errors.Errorf("invalid node ID %d", nodeID)
	}

	store, err := node.NewStore(params.Database)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, nodeTimeout)
	defer cancelTimeout()

	b, err := dist.Fetch(ctx, params.Dealer, nodeID, grp)
	if err != nil {
		return err
	}
	if err := store.Save(nodeID, b); err != nil {
		return err
	}
	n, err := node.Restore(store, nodeID)
	if err != nil {
		return err
	}
	printNode(n, b)

	for _, t := range terms {
		v, err := eval.Term(grp, n, t)
		if err != nil {
			continue
		}
		fmt.Fprintf(os.Stdout, "%s %v = %v\n", t.ID, t, v)
	}
	return nil
}
