package consolidation

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reconcile/internal/check"
)

var (
	testBed = Bed{VoidRatio: 0.45 / 0.55, Thickness: 1}
	approx  = cmpopts.EquateApprox(0, 1e-12)
)

// simulate builds a series whose thickness and porosity follow the relation
// exactly.
func simulate(t *testing.T, bed Bed, compaction []float64) Series {
	t.Helper()
	cv, err := Evaluate(bed, compaction)
	require.NoError(t, err)
	return Series{Compaction: compaction, Thickness: cv.Thickness, Porosity: cv.Porosity}
}

func TestCheckWholeBedConsistentSeriesPasses(t *testing.T) {
	s := simulate(t, testBed, []float64{0, 0.05, 0.10})
	s.Time = []float64{1, 2, 3}

	comps, err := CheckWholeBed(testBed, s, 1e-6)
	require.NoError(t, err)
	require.Len(t, comps, 2)

	assert.Equal(t, QuantityThickness, comps[0].Quantity)
	assert.Equal(t, QuantityPorosity, comps[1].Quantity)
	for _, c := range comps {
		assert.True(t, c.Pass)
		assert.Equal(t, 0.0, c.MaxAbs)
		assert.NoError(t, c.Err())
	}
	if diff := cmp.Diff([]float64{1, 0.95, 0.9}, comps[0].Calculated, approx); diff != "" {
		t.Errorf("thickness mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckWholeBedReportsOffendingStep(t *testing.T) {
	s := simulate(t, testBed, []float64{0, 0.05, 0.10})
	s.Porosity[1] += 0.001

	comps, err := CheckWholeBed(testBed, s, 1e-6)
	require.NoError(t, err)

	assert.True(t, comps[0].Pass)
	theta := comps[1]
	assert.False(t, theta.Pass)
	assert.Equal(t, 2, theta.Step)
	assert.InDelta(t, 0.001, theta.MaxAbs, 1e-12)
	assert.InDelta(t, -0.001, theta.Diff[1], 1e-12, "calculated minus simulated")

	var te *check.ToleranceExceeded
	require.ErrorAs(t, theta.Err(), &te)
	assert.Equal(t, 2, te.Step)
	assert.Equal(t, QuantityPorosity, te.Quantity)
	assert.InDelta(t, 0.001, te.Delta, 1e-12)
}

func TestCheckWholeBedNaNIsDataError(t *testing.T) {
	s := simulate(t, testBed, []float64{0, 0.05, 0.10})
	s.Compaction = []float64{0, math.NaN(), 0.10}

	_, err := CheckWholeBed(testBed, s, 1e-6)
	require.Error(t, err)
	assert.True(t, check.IsData(err))
	assert.False(t, check.IsTolerance(err))

	var de *check.DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Step)
}

func TestCheckWholeBedLengthMismatchIsStructural(t *testing.T) {
	s := simulate(t, testBed, []float64{0, 0.05, 0.10})
	s.Thickness = s.Thickness[:2]

	_, err := CheckWholeBed(testBed, s, 1e-6)
	require.Error(t, err)
	assert.True(t, check.IsStructural(err))
}

func TestCheckSublayersDegenerateCase(t *testing.T) {
	whole := []float64{0, 0.05, 0.10}
	wholeSeries := simulate(t, testBed, whole)

	for _, n := range []int{1, 2, 19} {
		sub := testBed.Sublayer(n)
		per := make([]float64, len(whole))
		for i, c := range whole {
			per[i] = c / float64(n)
		}
		subs := make([]Series, n)
		for i := range subs {
			subs[i] = simulate(t, sub, per)
		}

		res, err := CheckSublayers(testBed, wholeSeries, subs, 1e-12)
		require.NoError(t, err)
		require.Len(t, res.Sublayers, n)
		require.Len(t, res.Aggregate, 2)

		for _, c := range res.All() {
			assert.True(t, c.Pass, "n=%d %s %s maxabs=%g", n, c.Name, c.Quantity, c.MaxAbs)
		}
		if diff := cmp.Diff([]float64{1, 0.95, 0.9}, res.Aggregate[0].Calculated, approx); diff != "" {
			t.Errorf("n=%d summed thickness (-want +got):\n%s", n, diff)
		}
		if diff := cmp.Diff(wholeSeries.Porosity, res.Aggregate[1].Calculated, approx); diff != "" {
			t.Errorf("n=%d weighted porosity (-want +got):\n%s", n, diff)
		}
	}
}

func TestCheckSublayersLabelsColumns(t *testing.T) {
	whole := simulate(t, testBed, []float64{0, 0.1})
	sub := simulate(t, testBed.Sublayer(2), []float64{0, 0.05})

	res, err := CheckSublayers(testBed, whole, []Series{sub, sub}, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, "THICK02", res.Sublayers[1][0].Quantity)
	assert.Equal(t, "THETA01", res.Sublayers[0][1].Quantity)
	assert.Equal(t, "interbed cell 02", res.Sublayers[1][0].Name)
}

func TestCheckSublayersAggregateMismatchFails(t *testing.T) {
	whole := simulate(t, testBed, []float64{0, 0.1})
	whole.Thickness[1] = 0.95
	sub := simulate(t, testBed.Sublayer(2), []float64{0, 0.05})

	res, err := CheckSublayers(testBed, whole, []Series{sub, sub}, 1e-6)
	require.NoError(t, err)
	for _, c := range res.Sublayers {
		assert.True(t, c[0].Pass)
	}
	agg := res.Aggregate[0]
	assert.False(t, agg.Pass)
	assert.Equal(t, 2, agg.Step)
	assert.InDelta(t, 0.05, agg.MaxAbs, 1e-12)
}

func TestCheckSublayersUnequalLengthsIsStructural(t *testing.T) {
	whole := simulate(t, testBed, []float64{0, 0.1, 0.2})
	short := simulate(t, testBed.Sublayer(2), []float64{0, 0.05})
	full := simulate(t, testBed.Sublayer(2), []float64{0, 0.05, 0.1})

	_, err := CheckSublayers(testBed, whole, []Series{full, short}, 1e-6)
	require.Error(t, err)
	assert.True(t, check.IsStructural(err))

	_, err = CheckSublayers(testBed, whole, nil, 1e-6)
	assert.True(t, check.IsStructural(err))
}

func TestCheckSublayersNaNIsDataError(t *testing.T) {
	whole := simulate(t, testBed, []float64{0, 0.1})
	sub := simulate(t, testBed.Sublayer(2), []float64{0, 0.05})
	bad := sub
	bad.Compaction = []float64{math.NaN(), 0.05}

	_, err := CheckSublayers(testBed, whole, []Series{sub, bad}, 1e-6)
	require.Error(t, err)
	assert.True(t, check.IsData(err))
	assert.Contains(t, err.Error(), "interbed cell 02")
}

func TestCompareSeries(t *testing.T) {
	got := []float64{0, 0.25, 0.5}
	want := []float64{0, 0.25, 0.625}

	c, err := CompareSeries("CSUB", []float64{1, 2, 3}, got, want, 1e-6)
	require.NoError(t, err)
	assert.False(t, c.Pass)
	assert.Equal(t, 0.125, c.MaxAbs)
	assert.Equal(t, 3, c.Step)
	assert.Equal(t, "REF", c.Reference)

	c, err = CompareSeries("CSUB", nil, got, got, 0)
	require.NoError(t, err)
	assert.True(t, c.Pass)
	assert.Equal(t, []float64{1, 2, 3}, c.Time)

	_, err = CompareSeries("CSUB", nil, got, want[:2], 1e-6)
	assert.True(t, check.IsStructural(err))

	_, err = CompareSeries("CSUB", nil, []float64{math.NaN()}, []float64{0}, 1e-6)
	assert.True(t, check.IsData(err))
}

func TestWriteTableGolden(t *testing.T) {
	c, err := CompareSeries("CSUB", []float64{1, 2, 3}, []float64{0, 0.25, 0.5}, []float64{0, 0.25, 0.625}, 1e-6)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []*Comparison{c}))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "regression_csub", buf.Bytes())
}

func TestWriteTableRejectsMismatchedAxes(t *testing.T) {
	a, err := CompareSeries("A", nil, []float64{1, 2}, []float64{1, 2}, 0)
	require.NoError(t, err)
	b, err := CompareSeries("B", nil, []float64{1}, []float64{1}, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, WriteTable(&buf, []*Comparison{a, b}))
	assert.Error(t, WriteTable(&buf, nil))
}
