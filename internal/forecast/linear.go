package forecast

import (
	"context"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// rankTolerance is the relative singular value cutoff below which a
// direction is treated as null.
const rankTolerance = 1e-10

// LinearModel is ordinary least squares with an intercept. Collinear or
// constant columns get the minimum-norm solution instead of failing.
type LinearModel struct {
	Coef      []float64
	Intercept float64
	fitted    bool
}

// Fit solves the centered least-squares problem through an SVD.
func (m *LinearModel) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if err := checkMatrix(x, y); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "forecast: linear fit")
	}

	n, p := len(x), len(x[0])
	xMean := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		xMean[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	a := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	for i := range x {
		for j := 0; j < p; j++ {
			a.Set(i, j, x[i][j]-xMean[j])
		}
		b.SetVec(i, y[i]-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return eris.New("forecast: svd factorization failed")
	}

	coef := make([]float64, p)
	if rank := svd.Rank(rankTolerance); rank > 0 {
		beta := mat.NewVecDense(p, nil)
		svd.SolveVecTo(beta, b, rank)
		for j := range coef {
			coef[j] = beta.AtVec(j)
		}
	}

	intercept := yMean
	for j, c := range coef {
		intercept -= c * xMean[j]
	}

	m.Coef = coef
	m.Intercept = intercept
	m.fitted = true
	return nil
}

// Predict evaluates the fitted hyperplane.
func (m *LinearModel) Predict(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, eris.New("forecast: linear model not fitted")
	}
	if err := checkMatrix(x, nil); err != nil {
		return nil, err
	}
	if len(x[0]) != len(m.Coef) {
		return nil, eris.Errorf("forecast: got %d features, model has %d", len(x[0]), len(m.Coef))
	}
	out := make([]float64, len(x))
	for i, row := range x {
		v := m.Intercept
		for j, c := range m.Coef {
			v += c * row[j]
		}
		out[i] = v
	}
	return out, nil
}
