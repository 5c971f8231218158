//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package eval

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/markkurossi/sop/dealer"
	"github.com/markkurossi/sop/env"
	"github.com/markkurossi/sop/expr"
	"github.com/markkurossi/sop/group"
	"github.com/markkurossi/sop/mask"
	"github.com/markkurossi/sop/node"
)

func toyInputs() expr.Inputs {
	return expr.Inputs{
		"0": big.NewInt(5),
		"1": big.NewInt(3),
		"2": big.NewInt(7),
		"3": big.NewInt(4),
	}
}

func toyTerms() expr.Terms {
	return expr.Terms{
		{ID: "t1", Members: []string{"0", "1"}},
		{ID: "t2", Members: []string{"2", "3"}},
	}
}

func run(t *testing.T, grp *group.Group, inputs expr.Inputs,
	terms expr.Terms, src mask.Source) *big.Int {

	b, err := dealer.Preprocess(inputs, terms, grp, src)
	require.NoError(t, err)
	result, err := EvaluateMaps(grp, b.Shares, b.Gammas, terms)
	require.NoError(t, err)
	return result
}

func TestToy(t *testing.T) {
	grp := group.Toy()
	for i := 0; i < 50; i++ {
		result := run(t, grp, toyInputs(), toyTerms(), mask.NewSecure(nil))
		require.Equal(t, int64(43), result.Int64())
	}
}

func TestSimulation(t *testing.T) {
	grp := group.Simulation()
	for i := 0; i < 20; i++ {
		inputs := make(expr.Inputs)
		for j := 0; j < 4; j++ {
			v, err := rand.Int(rand.Reader, big.NewInt(100))
			require.NoError(t, err)
			inputs[fmt.Sprintf("%d", j)] = v.Add(v, big.NewInt(1))
		}
		expected := new(big.Int).Mul(inputs["0"], inputs["1"])
		expected.Add(expected, new(big.Int).Mul(inputs["2"], inputs["3"]))
		expected.Mod(expected, grp.P())

		result := run(t, grp, inputs, toyTerms(), mask.NewSecure(nil))
		require.Equal(t, 0, expected.Cmp(result), "inputs %v", inputs)
	}
}

func TestCorrectness(t *testing.T) {
	p256, _ := new(big.Int).SetString(
		"ffffffff00000001000000000000000000000000ffffffffffffffffffffffff", 16)
	large, err := group.New(p256, big.NewInt(3))
	require.NoError(t, err)

	for _, grp := range []*group.Group{group.Toy(), group.Simulation(), large} {
		for round := 0; round < 10; round++ {
			src := mask.NewSeeded([]byte(fmt.Sprintf("round %d", round)))

			inputs := make(expr.Inputs)
			for i := 0; i < 12; i++ {
				v, err := mask.Generate(src.Reader(1000+i), grp.P())
				require.NoError(t, err)
				inputs[fmt.Sprintf("x%d", i)] = v
			}
			// Terms of arity 1..5 with overlapping members.
			var terms expr.Terms
			for i := 0; i < 8; i++ {
				term := expr.Term{ID: expr.TermID(i)}
				for j := 0; j <= i%5; j++ {
					term.Members = append(term.Members,
						fmt.Sprintf("x%d", (i*3+j*5)%12))
				}
				terms = append(terms, term)
			}

			expected, err := expr.Reference(grp, inputs, terms)
			require.NoError(t, err)
			result := run(t, grp, inputs, terms, src)
			require.Equal(t, 0, expected.Cmp(result), "%v: %v", grp, terms)
		}
	}
}

func TestMaskIndependence(t *testing.T) {
	grp := group.Simulation()
	inputs := toyInputs()
	terms := toyTerms()

	b1, err := dealer.Preprocess(inputs, terms, grp,
		mask.NewSeeded([]byte("first")))
	require.NoError(t, err)
	b2, err := dealer.Preprocess(inputs, terms, grp,
		mask.NewSeeded([]byte("second")))
	require.NoError(t, err)

	var differ bool
	for id := range b1.Shares {
		if b1.Shares[id].Cmp(b2.Shares[id]) != 0 {
			differ = true
		}
	}
	require.True(t, differ, "shares do not depend on masks")
	require.NotEqual(t, 0, b1.Gammas["t1"].Cmp(b2.Gammas["t1"]))

	r1, err := EvaluateMaps(grp, b1.Shares, b1.Gammas, terms)
	require.NoError(t, err)
	r2, err := EvaluateMaps(grp, b2.Shares, b2.Gammas, terms)
	require.NoError(t, err)
	require.Equal(t, 0, r1.Cmp(r2))
	require.Equal(t, int64(43), r1.Int64())
}

func TestNonInteractive(t *testing.T) {
	grp := group.Toy()
	inputs := toyInputs()
	inputs["4"] = big.NewInt(9)
	terms := append(toyTerms(), expr.Term{ID: "t3", Members: []string{"4"}})

	b, err := dealer.Preprocess(inputs, terms, grp, mask.NewSeeded(nil))
	require.NoError(t, err)

	// Each term needs only its own entries.
	for _, term := range terms {
		own := Maps{
			Shares: make(map[string]*big.Int),
			Gammas: map[string]*big.Int{term.ID: b.Gammas[term.ID]},
		}
		for _, m := range term.Members {
			own.Shares[m] = b.Shares[m]
		}
		full, err := Term(grp, Maps{Shares: b.Shares, Gammas: b.Gammas}, term)
		require.NoError(t, err)
		local, err := Term(grp, own, term)
		require.NoError(t, err)
		require.Equal(t, 0, full.Cmp(local), "term %s", term.ID)
	}

	// Removing entries of unrelated terms does not change the result.
	delete(b.Shares, "4")
	delete(b.Gammas, "t3")
	result, err := EvaluateMaps(grp, b.Shares, b.Gammas, toyTerms())
	require.NoError(t, err)
	require.Equal(t, int64(43), result.Int64())
}

func TestReuse(t *testing.T) {
	grp := group.Toy()
	inputs := toyInputs()
	terms := expr.Terms{
		{ID: "t1", Members: []string{"0", "1"}},
		{ID: "t2", Members: []string{"0", "2"}},
		{ID: "t3", Members: []string{"0"}},
		{ID: "t4", Members: []string{"1", "1"}},
	}
	b, err := dealer.Preprocess(inputs, terms, grp, mask.NewSeeded(nil))
	require.NoError(t, err)

	expected := []int64{15, 35, 5, 9}
	for idx, term := range terms {
		v, err := Term(grp, Maps{Shares: b.Shares, Gammas: b.Gammas}, term)
		require.NoError(t, err)
		require.Equal(t, expected[idx], v.Int64(), "term %s", term.ID)
	}
	result, err := EvaluateMaps(grp, b.Shares, b.Gammas, terms)
	require.NoError(t, err)
	require.Equal(t, int64((15+35+5+9)%101), result.Int64())
}

func TestEmptyTerm(t *testing.T) {
	grp := group.Toy()
	terms := append(toyTerms(), expr.Term{ID: "empty"})
	b, err := dealer.Preprocess(toyInputs(), terms, grp, mask.NewSeeded(nil))
	require.NoError(t, err)

	result, err := EvaluateMaps(grp, b.Shares, b.Gammas, terms)
	require.True(t, errors.Is(err, ErrEmptyTerm), "%v", err)
	require.Nil(t, result)
}

func TestMissingShare(t *testing.T) {
	grp := group.Toy()
	b, err := dealer.Preprocess(toyInputs(), toyTerms(), grp,
		mask.NewSeeded(nil))
	require.NoError(t, err)

	bundles, err := dealer.Assign(b, toyTerms(), 4)
	require.NoError(t, err)

	var cluster node.Cluster
	for i, nb := range bundles {
		n := node.New(i)
		n.Assign(nb)
		cluster = append(cluster, n)
	}
	result, err := Evaluate(grp, cluster, toyTerms())
	require.NoError(t, err)
	require.Equal(t, int64(43), result.Int64())

	// Node 3 holding input 3 is not part of the evaluator's data.
	result, err = Evaluate(grp, cluster[:3], toyTerms())
	require.True(t, errors.Is(err, ErrMissingShare), "%v", err)
	require.Nil(t, result)

	delete(b.Shares, "1")
	_, err = EvaluateMaps(grp, b.Shares, b.Gammas, toyTerms())
	require.True(t, errors.Is(err, ErrMissingShare), "%v", err)
}

func TestMissingGamma(t *testing.T) {
	grp := group.Toy()
	b, err := dealer.Preprocess(toyInputs(), toyTerms(), grp,
		mask.NewSeeded(nil))
	require.NoError(t, err)

	delete(b.Gammas, "t2")
	result, err := EvaluateMaps(grp, b.Shares, b.Gammas, toyTerms())
	require.True(t, errors.Is(err, ErrMissingGamma), "%v", err)
	require.False(t, errors.Is(err, ErrMissingShare))
	require.Nil(t, result)
}

func TestErrorOrder(t *testing.T) {
	grp := group.Toy()
	terms := expr.Terms{
		{ID: "t1", Members: []string{"0"}},
		{ID: "t2"},
		{ID: "t3", Members: []string{"9"}},
	}
	src := Maps{
		Shares: map[string]*big.Int{"0": big.NewInt(1)},
		Gammas: map[string]*big.Int{
			"t1": big.NewInt(0),
			"t3": big.NewInt(0),
		},
	}
	for i := 0; i < 20; i++ {
		_, err := Evaluate(grp, src, terms)
		require.True(t, errors.Is(err, ErrEmptyTerm), "%v", err)
	}
}

func TestInvalidParameters(t *testing.T) {
	_, err := group.NewInt64(4, 3)
	require.True(t, errors.Is(err, group.ErrInvalidParameters))
	_, err = group.NewInt64(101, 0)
	require.True(t, errors.Is(err, group.ErrInvalidParameters))
}

func TestEvaluatorDebug(t *testing.T) {
	grp := group.Toy()
	b, err := dealer.Preprocess(toyInputs(), toyTerms(), grp,
		mask.NewSeeded(nil))
	require.NoError(t, err)

	var out bytes.Buffer
	e := NewEvaluator(grp, &env.Config{Verbose: true, Output: &out})
	result, err := e.Evaluate(Maps{Shares: b.Shares, Gammas: b.Gammas},
		toyTerms())
	require.NoError(t, err)
	require.Equal(t, int64(43), result.Int64())
	require.Contains(t, out.String(), "2 terms")

	result, err = e.Evaluate(Maps{}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, result.Sign())
}
