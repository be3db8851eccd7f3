package surrogate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/iraikov/dmosopt/logging"
	"github.com/iraikov/dmosopt/sceua"
)

// Optimizer tunes a kernel's hyperparameters by minimizing an objective over
// box bounds. Fit uses NewSCEUAOptimizer when FitOptions.Optimizer is nil.
type Optimizer interface {
	Minimize(obj func(theta []float64) float64, lb, ub []float64) []float64
}

// sceuaOptimizer adapts sceua.Minimize to the Optimizer interface.
type sceuaOptimizer struct {
	opts   sceua.Options
	logger logging.Logger
}

// NewSCEUAOptimizer returns an Optimizer backed by Shuffled Complex
// Evolution, the default hyperparameter fitter named in spec section 4.C.
func NewSCEUAOptimizer(logger logging.Logger) Optimizer {
	return &sceuaOptimizer{logger: logger}
}

func (o *sceuaOptimizer) Minimize(obj func(theta []float64) float64, lb, ub []float64) []float64 {
	opts := sceua.DefaultOptions(len(lb))
	opts.Logger = o.logger
	res := sceua.Minimize(obj, lb, ub, opts)
	return res.BestX
}

// singleOutputGP is a Gaussian-process regressor for one scalar output
// dimension: an independent model is fit per objective/constraint/feature,
// per spec section 4.C.
type singleOutputGP struct {
	kernel Kernel

	xTrain [][]float64 // rescaled to [0,1]^d
	yTrain []float64   // normalized to zero mean, unit variance

	xLB, xUB   []float64
	yMean, yStd float64

	chol  *mat.Cholesky
	alpha *mat.VecDense // (K+sigma2 I)^-1 y, solved via Cholesky
}

// GP holds one singleOutputGP per output column and the shared input bounds
// used to rescale queries consistently across them.
type GP struct {
	dim     int
	outputs []*singleOutputGP
	logger  logging.Logger
}

// KernelKind selects which stationary kernel family backs each output's GP.
type KernelKind int

const (
	KernelMatern52 KernelKind = iota
	KernelRBF
)

// FitOptions controls kernel family, initial hyperparameters, and the
// optimizer used to tune them.
type FitOptions struct {
	Kind      KernelKind
	Optimizer Optimizer
	Logger    logging.Logger
}

// Fit trains one independent GP per column of Y against the rows of X.
// X is rescaled internally to the unit cube defined by its own column
// extrema; Y's columns are each normalized to zero mean and unit variance,
// per spec section 4.C.
func Fit(X [][]float64, Y [][]float64, opts FitOptions) (*GP, error) {
	n := len(X)
	if n == 0 {
		return nil, fmt.Errorf("surrogate: no training points")
	}
	dim := len(X[0])
	nOut := len(Y[0])

	xLB := make([]float64, dim)
	xUB := make([]float64, dim)
	for j := 0; j < dim; j++ {
		xLB[j], xUB[j] = X[0][j], X[0][j]
	}
	for _, row := range X {
		for j, v := range row {
			if v < xLB[j] {
				xLB[j] = v
			}
			if v > xUB[j] {
				xUB[j] = v
			}
		}
	}

	xScaled := make([][]float64, n)
	for i, row := range X {
		xScaled[i] = make([]float64, dim)
		for j, v := range row {
			rng := xUB[j] - xLB[j]
			if rng <= 0 {
				xScaled[i][j] = 0.5
			} else {
				xScaled[i][j] = (v - xLB[j]) / rng
			}
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger("surrogate")
	}
	optimizer := opts.Optimizer
	if optimizer == nil {
		optimizer = NewSCEUAOptimizer(logger)
	}

	gp := &GP{dim: dim, outputs: make([]*singleOutputGP, nOut), logger: logger}
	for k := 0; k < nOut; k++ {
		yCol := make([]float64, n)
		for i := range Y {
			yCol[i] = Y[i][k]
		}
		mean, std := meanStd(yCol)
		if std == 0 {
			std = 1
		}
		yNorm := make([]float64, n)
		for i, v := range yCol {
			yNorm[i] = (v - mean) / std
		}

		sog, err := fitOne(xScaled, yNorm, dim, opts.Kind, optimizer)
		if err != nil {
			return nil, fmt.Errorf("surrogate: output %d: %w", k, err)
		}
		sog.xLB, sog.xUB = xLB, xUB
		sog.yMean, sog.yStd = mean, std
		gp.outputs[k] = sog
	}
	return gp, nil
}

func fitOne(xScaled [][]float64, yNorm []float64, dim int, kind KernelKind, optimizer Optimizer) (*singleOutputGP, error) {
	initLS := make([]float64, dim)
	for i := range initLS {
		initLS[i] = 1.0
	}
	var base Kernel
	switch kind {
	case KernelRBF:
		base = NewRBF(1.0, initLS, 1e-6)
	default:
		base = NewMatern52(1.0, initLS, 1e-6)
	}
	lb, ub := base.Bounds()

	nll := func(theta []float64) float64 {
		k := base.WithTheta(theta)
		val, _, err := negLogMarginalLikelihood(k, xScaled, yNorm)
		if err != nil {
			return math.Inf(1)
		}
		return val
	}

	bestTheta := optimizer.Minimize(nll, lb, ub)
	tuned := base.WithTheta(bestTheta)

	_, chol, err := negLogMarginalLikelihood(tuned, xScaled, yNorm)
	if err != nil {
		return nil, err
	}
	yVec := mat.NewVecDense(len(yNorm), yNorm)
	alpha := mat.NewVecDense(len(yNorm), nil)
	if err := chol.SolveVecTo(alpha, yVec); err != nil {
		return nil, fmt.Errorf("cholesky solve: %w", err)
	}

	return &singleOutputGP{
		kernel: tuned,
		xTrain: xScaled,
		yTrain: yNorm,
		chol:   chol,
		alpha:  alpha,
	}, nil
}

// negLogMarginalLikelihood computes 0.5*y^T K^-1 y + sum(log diag(L)) +
// n/2*log(2*pi) for a candidate kernel, returning the Cholesky factor of
// K+sigma2*I so callers can reuse it for the alpha solve.
func negLogMarginalLikelihood(k Kernel, X [][]float64, y []float64) (float64, *mat.Cholesky, error) {
	n := len(X)
	K := mat.NewSymDense(n, nil)
	noise := k.NoiseVariance()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := k.Cov(X[i], X[j])
			if i == j {
				v += noise
			}
			K.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(K); !ok {
		return 0, nil, fmt.Errorf("kernel matrix is not positive definite")
	}

	yVec := mat.NewVecDense(n, y)
	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, yVec); err != nil {
		return 0, nil, err
	}

	quad := mat.Dot(yVec, alpha)

	var logDet float64
	// sum(log(diag(L))) == 0.5*log(det(K)); gonum exposes LogDet directly.
	ld := chol.LogDet()
	logDet = 0.5 * ld

	nll := 0.5*quad + logDet + float64(n)/2*math.Log(2*math.Pi)
	return nll, &chol, nil
}

// Predict returns the posterior mean for each output dimension at query
// point x (in original, unscaled coordinates).
func (gp *GP) Predict(x []float64) []float64 {
	out := make([]float64, len(gp.outputs))
	for k, sog := range gp.outputs {
		out[k] = sog.predictOne(x)
	}
	return out
}

// PredictBatch applies Predict across every row of X.
func (gp *GP) PredictBatch(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		out[i] = gp.Predict(x)
	}
	return out
}

func (sog *singleOutputGP) predictOne(x []float64) float64 {
	xs := make([]float64, len(x))
	for j, v := range x {
		rng := sog.xUB[j] - sog.xLB[j]
		if rng <= 0 {
			xs[j] = 0.5
		} else {
			xs[j] = (v - sog.xLB[j]) / rng
		}
	}

	kStar := make([]float64, len(sog.xTrain))
	for i, xt := range sog.xTrain {
		kStar[i] = sog.kernel.Cov(xs, xt)
	}
	kVec := mat.NewVecDense(len(kStar), kStar)
	meanNorm := mat.Dot(kVec, sog.alpha)
	return meanNorm*sog.yStd + sog.yMean
}

func meanStd(v []float64) (mean, std float64) {
	n := float64(len(v))
	for _, x := range v {
		mean += x
	}
	mean /= n
	var ss float64
	for _, x := range v {
		d := x - mean
		ss += d * d
	}
	std = math.Sqrt(ss / n)
	return mean, std
}
