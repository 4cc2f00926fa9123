package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

// evenWeightTable fits overall = 500 - 4*Ht + 0.5*Wt exactly; weights are
// even so every overall is an integer.
func evenWeightTable(n int) *record.Table {
	var rows []record.MergedRecord
	for i := 0; i < n; i++ {
		ht := 68 + i%7
		wt := 180 + 2*float64((i*37)%45)
		rows = append(rows, record.MergedRecord{
			DraftID:   i,
			CombineID: i,
			Year:      2000,
			Overall:   500 - 4*ht + int(wt/2),
			Name:      "P",
			Position:  "QB",
			Measurements: record.Measurements{
				Height: record.Int(ht),
				Weight: record.Float(wt),
			},
		})
	}
	return record.NewTable(nil, rows)
}

func TestOLSRecoversNoiselessLine(t *testing.T) {
	reg, err := OLS(evenWeightTable(30), "Overall", []string{"Ht", "Wt"}, All)
	require.NoError(t, err)
	assert.Equal(t, 30, reg.N)
	assert.Equal(t, 27, reg.DF)

	icpt, ok := reg.Term(Intercept)
	require.True(t, ok)
	assert.InDelta(t, 500, icpt.Estimate, 1e-6)
	ht, _ := reg.Term("Ht")
	assert.InDelta(t, -4, ht.Estimate, 1e-7)
	wt, _ := reg.Term("Wt")
	assert.InDelta(t, 0.5, wt.Estimate, 1e-7)
	assert.InDelta(t, 1, reg.R2, 1e-9)
}

func TestOLSStatisticsOnKnownData(t *testing.T) {
	// y = x with the pairs swapped; reference values from a textbook fit.
	xs := []float64{1, 2, 3, 4, 5, 6}
	ys := []int{2, 1, 4, 3, 6, 5}
	var rows []record.MergedRecord
	for i := range xs {
		rows = append(rows, record.MergedRecord{
			DraftID: i, CombineID: -1, Overall: ys[i],
			Measurements: record.Measurements{Weight: record.Float(xs[i])},
		})
	}
	reg, err := OLS(record.NewTable(nil, rows), "Overall", []string{"Wt"}, All)
	require.NoError(t, err)

	slope, _ := reg.Term("Wt")
	icpt, _ := reg.Term(Intercept)
	// Sxx = 17.5, Sxy = 14.5
	assert.InDelta(t, 14.5/17.5, slope.Estimate, 1e-9)
	assert.InDelta(t, 3.5-3.5*14.5/17.5, icpt.Estimate, 1e-9)
	assert.InDelta(t, 0.68653, reg.R2, 1e-5)
	assert.InDelta(t, 0.27994, slope.StdErr, 1e-5)
	assert.InDelta(t, 2.95980, slope.T, 1e-4)
	assert.InDelta(t, 0.04156, slope.P, 1e-4)
	assert.InDelta(t, 0.61137, icpt.P, 1e-4)
	assert.Less(t, reg.AdjR2, reg.R2)
}

func TestOLSListwiseDeletion(t *testing.T) {
	tbl := fixtureTable()
	reg, err := OLS(tbl, "Overall", []string{"Wt", "40yd"}, All)
	require.NoError(t, err)
	assert.Equal(t, 7, reg.N, "rows without a forty time are dropped")
}

func TestOLSFilter(t *testing.T) {
	reg, err := OLS(fixtureTable(), "Overall", []string{"Ht"}, Where("Position", "QB"))
	require.NoError(t, err)
	assert.Equal(t, 5, reg.N)
	assert.Equal(t, "Position = QB", reg.Filter)
}

func TestOLSTooFewRows(t *testing.T) {
	_, err := OLS(fixtureTable(), "Overall", []string{"Wt", "Shuttle"}, All)
	require.ErrorIs(t, err, ErrTooFewRows)
}

func TestOLSSingular(t *testing.T) {
	tbl := fixtureTable()
	for i := range tbl.Records {
		tbl.Records[i].Vertical = record.Float(2 * tbl.Records[i].Weight.Value)
	}
	_, err := OLS(tbl, "Overall", []string{"Wt", "Vertical"}, All)
	require.ErrorIs(t, err, ErrSingular)
}

func TestStudentTwoSided(t *testing.T) {
	assert.InDelta(t, 1.0, studentTwoSided(0, 10), 1e-12)
	// t = 2.228 is the 97.5% quantile at 10 degrees of freedom.
	assert.InDelta(t, 0.05, studentTwoSided(2.228, 10), 1e-4)
	assert.InDelta(t, 0.05, studentTwoSided(-2.228, 10), 1e-4)
	// Close to the normal tail at 1000 degrees of freedom.
	assert.InDelta(t, 0.05027, studentTwoSided(1.96, 1000), 1e-4)
}
