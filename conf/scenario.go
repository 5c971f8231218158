//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package conf implements the scenario files and the runtime
// parameters of the sop tools.
package conf

import (
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/markkurossi/sop/expr"
	"github.com/markkurossi/sop/group"
)

// ErrScenario is returned for inconsistent scenario files.
var ErrScenario = errors.New("invalid scenario")

// Scenario defines the group, the private inputs, and the
// sum-of-products terms of a protocol run.
type Scenario struct {
	GroupSpec   GroupParams       `yaml:"group"`
	Nodes       int               `yaml:"nodes"`
	InputValues map[string]string `yaml:"inputs"`
	TermList    []TermParams      `yaml:"terms"`
	Expression  string            `yaml:"expression"`
	SeedHex     string            `yaml:"seed"`
}

// GroupParams define the prime field and its generator. The values
// are decimal or 0x-prefixed hexadecimal strings. An empty group
// selects the simulation group.
type GroupParams struct {
	Prime     string `yaml:"prime"`
	Generator string `yaml:"generator"`
}

// TermParams define one product term.
type TermParams struct {
	ID      string   `yaml:"id"`
	Members []string `yaml:"members"`
}

// LoadScenario loads the scenario from the YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return s, nil
}

// ParseScenario parses the YAML scenario data.
func ParseScenario(data []byte) (*Scenario, error) {
	s := new(Scenario)
	if err := yaml.UnmarshalStrict(data, s); err != nil {
		return nil, errors.Wrap(ErrScenario, err.Error())
	}
	if len(s.TermList) > 0 && len(s.Expression) > 0 {
		return nil, errors.Wrap(ErrScenario,
			"both terms and expression specified")
	}
	if s.Nodes < 0 {
		return nil, errors.Wrapf(ErrScenario, "invalid node count %d", s.Nodes)
	}
	if (len(s.GroupSpec.Prime) == 0) != (len(s.GroupSpec.Generator) == 0) {
		return nil, errors.Wrap(ErrScenario,
			"group needs both prime and generator")
	}
	return s, nil
}

// Group returns the scenario's group.
func (s *Scenario) Group() (*group.Group, error) {
	if len(s.GroupSpec.Prime) == 0 {
		return group.Simulation(), nil
	}
	p, err := expr.ParseInt(s.GroupSpec.Prime)
	if err != nil {
		return nil, errors.Wrap(err, "group prime")
	}
	g, err := expr.ParseInt(s.GroupSpec.Generator)
	if err != nil {
		return nil, errors.Wrap(err, "group generator")
	}
	return group.New(p, g)
}

// Inputs returns the scenario's private inputs.
func (s *Scenario) Inputs() (expr.Inputs, error) {
	inputs := make(expr.Inputs)
	for id, value := range s.InputValues {
		v, err := expr.ParseInt(value)
		if err != nil {
			return nil, errors.Wrapf(err, "input %s", id)
		}
		inputs[id] = v
	}
	return inputs, nil
}

// Terms returns the scenario's terms. The terms come either from the
// terms list or from the expression. Terms without IDs are numbered
// by their position.
func (s *Scenario) Terms() (expr.Terms, error) {
	if len(s.Expression) > 0 {
		return expr.Parse(s.Expression)
	}
	var terms expr.Terms
	for idx, t := range s.TermList {
		id := t.ID
		if len(id) == 0 {
			id = expr.TermID(idx)
		}
		terms = append(terms, expr.Term{
			ID:      id,
			Members: t.Members,
		})
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	return terms, nil
}

// Seed returns the deterministic mask seed or nil if the scenario
// uses secure randomness.
func (s *Scenario) Seed() ([]byte, error) {
	if len(s.SeedHex) == 0 {
		return nil, nil
	}
	return ParseSeed(s.SeedHex)
}

// ParseSeed decodes the hex-encoded mask seed.
func ParseSeed(value string) ([]byte, error) {
	seed, err := hex.DecodeString(value)
	if err != nil {
		return nil, errors.Wrapf(ErrScenario, "seed: %s", err)
	}
	return seed, nil
}

// NumNodes returns the number of nodes for the given number of
// resolved inputs. If the scenario does not specify the node count,
// each input gets its own node.
func (s *Scenario) NumNodes(inputs int) int {
	if s.Nodes > 0 {
		return s.Nodes
	}
	if inputs > 0 {
		return inputs
	}
	return 1
}
