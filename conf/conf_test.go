//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package conf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/markkurossi/sop/expr"
	"github.com/markkurossi/sop/node"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/toy.yaml")
	require.NoError(t, err)

	grp, err := s.Group()
	require.NoError(t, err)
	require.Equal(t, int64(101), grp.P().Int64())
	require.Equal(t, int64(3), grp.G().Int64())
	require.Equal(t, "101", s.GroupSpec.Prime)
	require.Len(t, s.TermList, 2)
	require.Len(t, s.InputValues, 4)
	require.Equal(t, 4, s.NumNodes(len(s.InputValues)))

	inputs, err := s.Inputs()
	require.NoError(t, err)
	require.Equal(t, []string{"x0", "x1", "x2", "x3"}, inputs.IDs())
	require.Equal(t, int64(7), inputs["x2"].Int64())

	terms, err := s.Terms()
	require.NoError(t, err)
	expected := expr.Terms{
		{ID: "t1", Members: []string{"x0", "x1"}},
		{ID: "t2", Members: []string{"x2", "x3"}},
	}
	if diff := cmp.Diff(expected, terms); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}

	seed, err := s.Seed()
	require.NoError(t, err)
	require.Equal(t, []byte("toy"), seed)

	result, err := expr.Reference(grp, inputs, terms)
	require.NoError(t, err)
	require.Equal(t, int64(43), result.Int64())
}

func TestScenarioExpression(t *testing.T) {
	s, err := LoadScenario("testdata/expression.yaml")
	require.NoError(t, err)

	grp, err := s.Group()
	require.NoError(t, err)
	require.Equal(t, int64(982451653), grp.P().Int64())
	require.Equal(t, "a*b + c + a*c*c", s.Expression)
	require.Equal(t, 3, s.NumNodes(len(s.InputValues)))

	inputs, err := s.Inputs()
	require.NoError(t, err)
	require.Equal(t, int64(16), inputs["a"].Int64())

	terms, err := s.Terms()
	require.NoError(t, err)
	require.Len(t, terms, 3)
	require.Equal(t, "t3", terms[2].ID)

	result, err := expr.Reference(grp, inputs, terms)
	require.NoError(t, err)
	require.Equal(t, int64(16*2+3+16*3*3), result.Int64())

	seed, err := s.Seed()
	require.NoError(t, err)
	require.Nil(t, seed)
}

func TestScenarioErrors(t *testing.T) {
	_, err := LoadScenario("testdata/invalid.yaml")
	require.True(t, errors.Is(err, ErrScenario), "%v", err)

	_, err = LoadScenario("testdata/missing.yaml")
	require.Error(t, err)

	for _, data := range []string{
		"nodes: -1\n",
		"unknown: 1\n",
		"group:\n  prime: \"101\"\n",
		"inputs: [1, 2]\n",
	} {
		_, err := ParseScenario([]byte(data))
		require.True(t, errors.Is(err, ErrScenario), "%q: %v", data, err)
	}

	_, err = ParseSeed("toy")
	require.True(t, errors.Is(err, ErrScenario), "%v", err)

	s, err := ParseScenario([]byte("seed: xyz\n"))
	require.NoError(t, err)
	_, err = s.Seed()
	require.True(t, errors.Is(err, ErrScenario), "%v", err)

	s, err = ParseScenario([]byte("group:\n  prime: \"100\"\n" +
		"  generator: \"3\"\n"))
	require.NoError(t, err)
	_, err = s.Group()
	require.Error(t, err)

	s, err = ParseScenario([]byte("inputs:\n  a: \"1z\"\n"))
	require.NoError(t, err)
	_, err = s.Inputs()
	require.True(t, errors.Is(err, expr.ErrSyntax), "%v", err)

	s, err = ParseScenario([]byte("terms:\n  - id: t\n  - id: t\n"))
	require.NoError(t, err)
	_, err = s.Terms()
	require.True(t, errors.Is(err, expr.ErrDuplicateTerm), "%v", err)
}

func TestNumNodes(t *testing.T) {
	s := new(Scenario)
	require.Equal(t, 1, s.NumNodes(0))
	require.Equal(t, 4, s.NumNodes(4))

	s.Nodes = 2
	require.Equal(t, 2, s.NumNodes(0))
	require.Equal(t, 2, s.NumNodes(4))
}

func TestNewParams(t *testing.T) {
	vip := viper.New()
	vip.SetConfigFile("testdata/params.yaml")
	require.NoError(t, vip.ReadInConfig())

	params, err := NewParams(vip)
	require.NoError(t, err)

	expected := &Params{
		Verbose: true,
		DevMode: true,
		Listen:  "0.0.0.0:9100",
		Dealer:  "dealer.example.com:9100",
		Database: node.DBParams{
			Name:     "sop",
			Username: "sop",
			Password: "secret",
			Address:  "db.example.com",
			Port:     "5432",
			DevMode:  true,
		},
	}
	if diff := cmp.Diff(expected, params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestNewParamsDefaults(t *testing.T) {
	params, err := NewParams(viper.New())
	require.NoError(t, err)
	require.Equal(t, DefaultListen, params.Listen)
	require.Equal(t, DefaultDealer, params.Dealer)
	require.False(t, params.DevMode)
	require.Empty(t, params.Database.Address)

	vip := viper.New()
	vip.Set("database.address", "no-port")
	_, err = NewParams(vip)
	require.Error(t, err)
}

func TestDefaultConfigFile(t *testing.T) {
	path, err := DefaultConfigFile()
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "/.sop/sop.yaml"), path)
}
