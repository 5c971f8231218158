//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/markkurossi/tabulate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/markkurossi/sop/conf"
	"github.com/markkurossi/sop/env"
	"github.com/markkurossi/sop/expr"
	"github.com/markkurossi/sop/group"
	"github.com/markkurossi/sop/mask"
	"github.com/markkurossi/sop/node"
)

const toyExpression = "x0*x1 + x2*x3"

// scenarioFlags define the command line overrides of a scenario.
type scenarioFlags struct {
	nodes  int
	seed   string
	expr   string
	inputs []string
	toy    bool
}

var scenarioArgs scenarioFlags

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&scenarioArgs.nodes, "nodes", "n", 0,
		"Number of nodes (default one node per input)")
	cmd.Flags().StringVar(&scenarioArgs.seed, "seed", "",
		"Hex-encoded deterministic mask seed (default secure randomness)")
	cmd.Flags().StringVarP(&scenarioArgs.expr, "expr", "e", "",
		"Sum-of-products expression, e.g. \"a*b + c*d\"")
	cmd.Flags().StringArrayVarP(&scenarioArgs.inputs, "input", "i", nil,
		"Input assignment id=value")
	cmd.Flags().BoolVar(&scenarioArgs.toy, "toy", false,
		"Use the toy group Z_101 with the four-input example")
}

// setup holds a resolved protocol scenario.
type setup struct {
	grp    *group.Group
	inputs expr.Inputs
	terms  expr.Terms
	nodes  int
	seed   []byte
}

// Source returns the mask source of the setup.
func (s *setup) Source(config *env.Config) mask.Source {
	if s.seed != nil {
		return mask.NewSeeded(s.seed)
	}
	return mask.NewSecure(config)
}

// Reference computes the plaintext result of the setup.
func (s *setup) Reference() (*big.Int, error) {
	return expr.Reference(s.grp, s.inputs, s.terms)
}

// newSetup resolves the scenario from the optional scenario file and
// the command line flags. The flags override the file.
func newSetup(args []string, flags scenarioFlags) (*setup, error) {
	scenario := new(conf.Scenario)
	if len(args) > 0 {
		var err error
		scenario, err = conf.LoadScenario(args[0])
		if err != nil {
			return nil, err
		}
	}

	result := new(setup)
	var err error

	if flags.toy {
		result.grp = group.Toy()
		result.inputs = expr.Inputs{
			"x0": big.NewInt(5),
			"x1": big.NewInt(3),
			"x2": big.NewInt(7),
			"x3": big.NewInt(4),
		}
		result.terms, err = expr.Parse(toyExpression)
		if err != nil {
			return nil, err
		}
	} else {
		result.grp, err = scenario.Group()
		if err != nil {
			return nil, err
		}
	}

	if len(scenario.InputValues) > 0 || result.inputs == nil {
		result.inputs, err = scenario.Inputs()
		if err != nil {
			return nil, err
		}
	}
	assignments, err := expr.ParseAssignments(flags.inputs)
	if err != nil {
		return nil, err
	}
	for id, v := range assignments {
		result.inputs[id] = v
	}

	if len(flags.expr) > 0 {
		result.terms, err = expr.Parse(flags.expr)
	} else if len(scenario.TermList) > 0 || len(scenario.Expression) > 0 {
		result.terms, err = scenario.Terms()
	}
	if err != nil {
		return nil, err
	}
	if len(result.terms) == 0 {
		return nil, errors.New("no terms: specify a scenario or --expr")
	}

	result.seed, err = scenario.Seed()
	if err != nil {
		return nil, err
	}
	if len(flags.seed) > 0 {
		result.seed, err = conf.ParseSeed(flags.seed)
		if err != nil {
			return nil, err
		}
	}

	result.nodes = scenario.NumNodes(len(result.inputs))
	if flags.nodes > 0 {
		result.nodes = flags.nodes
	}

	return result, nil
}

// printNode prints the node's entries.
func printNode(n *node.Node, b *node.Bundle) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header(n.String()).SetAlign(tabulate.ML)
	tab.Header("Value").SetAlign(tabulate.MR)

	for _, id := range b.ShareIDs() {
		row := tab.Row()
		row.Column("s " + id)
		row.Column(b.Shares[id].String())
	}
	for _, id := range b.GammaIDs() {
		row := tab.Row()
		row.Column("γ " + id).SetFormat(tabulate.FmtItalic)
		row.Column(b.Gammas[id].String()).SetFormat(tabulate.FmtItalic)
	}
	tab.Print(os.Stdout)
}

// checkGenerator reports whether the group generator is a primitive
// root. Groups whose order cannot be factored are not checked.
func checkGenerator(grp *group.Group) bool {
	ok, err := grp.IsGenerator()
	if err != nil {
		if !errors.Is(err, group.ErrUnknownOrder) {
			jww.WARN.Printf("%v: generator check failed: %s\n", grp, err)
		}
		return true
	}
	if !ok {
		jww.WARN.Printf("%v: generator is not a primitive root\n", grp)
	}
	return ok
}

func printSetup(s *setup) {
	checkGenerator(s.grp)
	fmt.Printf("Group: %v\n", s.grp)
	fmt.Printf("Terms: %v\n", s.terms)
	fmt.Printf("Nodes: %d\n", s.nodes)
}
