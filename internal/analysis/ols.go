package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

var (
	// ErrTooFewRows indicates fewer complete rows than fitted parameters plus one.
	ErrTooFewRows = errors.New("too few complete rows for regression")
	// ErrSingular indicates collinear regressors.
	ErrSingular = errors.New("singular design matrix")
)

// Intercept is the name of the constant term.
const Intercept = "Intercept"

// maxCond bounds the condition number of the design matrix. Exactly
// collinear columns leave rounding noise in R, so the bound sits well
// below the one mat applies.
const maxCond = 1e10

// Coefficient is one fitted term.
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	T        float64
	// P is the two-sided p-value of the t statistic.
	P float64
}

// Regression is an ordinary least squares fit with an intercept.
type Regression struct {
	Y      string
	Filter string
	Terms  []Coefficient
	N      int
	DF     int
	R2     float64
	AdjR2  float64
}

// OLS regresses y on xs with an intercept. Rows missing y or any x are
// dropped before fitting.
func OLS(t *record.Table, y string, xs []string, f Filter) (*Regression, error) {
	keep, err := f.compile(t)
	if err != nil {
		return nil, err
	}
	yf, err := numericField(t, y)
	if err != nil {
		return nil, err
	}
	xfs := make([]record.Field, len(xs))
	for i, x := range xs {
		if xfs[i], err = numericField(t, x); err != nil {
			return nil, err
		}
	}

	p := len(xs) + 1
	var (
		data []float64
		ys   []float64
	)
	row := make([]float64, p)
	for i := range t.Records {
		r := &t.Records[i]
		if !keep(r) {
			continue
		}
		yv, ok := yf.Get(r).Num.Float()
		if !ok {
			continue
		}
		row[0] = 1
		complete := true
		for j, xf := range xfs {
			v, ok := xf.Get(r).Num.Float()
			if !ok {
				complete = false
				break
			}
			row[j+1] = v
		}
		if !complete {
			continue
		}
		data = append(data, row...)
		ys = append(ys, yv)
	}
	n := len(ys)
	if n <= p {
		return nil, fmt.Errorf("%w: %d rows for %d parameters", ErrTooFewRows, n, p)
	}

	x := mat.NewDense(n, p, data)
	yvec := mat.NewVecDense(n, ys)
	var qr mat.QR
	qr.Factorize(x)
	if qr.Cond() > maxCond {
		return nil, ErrSingular
	}
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yvec); err != nil {
		return nil, ErrSingular
	}

	// (XᵀX)⁻¹ = R⁻¹R⁻ᵀ, so its diagonal is the squared row norms of R⁻¹.
	var r, rinv mat.Dense
	qr.RTo(&r)
	if err := rinv.Inverse(r.Slice(0, p, 0, p)); err != nil {
		return nil, ErrSingular
	}

	var fit, resid mat.VecDense
	fit.MulVec(x, &beta)
	resid.SubVec(yvec, &fit)
	ssr := mat.Dot(&resid, &resid)
	meanY := stat.Mean(ys, nil)
	var sst float64
	for _, v := range ys {
		sst += (v - meanY) * (v - meanY)
	}

	df := n - p
	sigma2 := ssr / float64(df)
	reg := &Regression{Y: yf.Name, Filter: f.String(), N: n, DF: df}
	if sst > 0 {
		reg.R2 = 1 - ssr/sst
		reg.AdjR2 = 1 - (1-reg.R2)*float64(n-1)/float64(df)
	}
	for a := 0; a < p; a++ {
		b := beta.AtVec(a)
		c := Coefficient{Name: Intercept, Estimate: b}
		if a > 0 {
			c.Name = xfs[a-1].Name
		}
		ra := rinv.RowView(a)
		c.StdErr = math.Sqrt(math.Max(sigma2*mat.Dot(ra, ra), 0))
		switch {
		case c.StdErr > 0:
			c.T = b / c.StdErr
			c.P = studentTwoSided(c.T, float64(df))
		case b == 0:
			c.P = 1
		default:
			c.T = math.Copysign(math.Inf(1), b)
		}
		reg.Terms = append(reg.Terms, c)
	}
	return reg, nil
}

// Term returns the coefficient named name.
func (r *Regression) Term(name string) (Coefficient, bool) {
	for _, c := range r.Terms {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

func numericField(t *record.Table, name string) (record.Field, error) {
	f, err := t.Field(name)
	if err != nil {
		return f, fmt.Errorf("regression: %w", err)
	}
	if !f.Numeric {
		return f, fmt.Errorf("regression: column %s is not numeric", f.Name)
	}
	return f, nil
}

// studentTwoSided is P(|T| >= |t|) for Student's t with df degrees of freedom.
func studentTwoSided(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	return 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
}
