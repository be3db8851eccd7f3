// Package surrogate implements the Gaussian-process surrogate model (spec
// section 4.C): one independent GP per output dimension, a Matérn(ν=5/2) or
// RBF kernel plus white noise, hyperparameters tuned by a pluggable
// derivative-free optimizer (SCE-UA by default).
package surrogate

import "math"

// Kernel is a stationary covariance function over a length scale (scalar or
// per-dimension) plus an output-scale constant and an additive white-noise
// variance.
type Kernel interface {
	// Cov returns C * k(||x1-x2||_length-scaled) for the two inputs.
	Cov(x1, x2 []float64) float64
	// NumHyperparams returns the number of free hyperparameters: 1 (constant)
	// + len(lengthScale) + 1 (noise variance).
	NumHyperparams() int
	// WithTheta returns a copy of the kernel with hyperparameters set from
	// theta, in the order [C, lengthScale..., sigma2].
	WithTheta(theta []float64) Kernel
	// NoiseVariance returns the additive white-noise variance component.
	NoiseVariance() float64
	// Bounds returns per-hyperparameter (lower, upper) bounds, in the same
	// order as WithTheta's theta.
	Bounds() (lb, ub []float64)
}

// HyperparamBounds are the bounds fixed by spec section 4.C.
var (
	ConstantBounds = [2]float64{1e-2, 1e2}
	LengthBounds   = [2]float64{1e-2, 1e2}
	NoiseBounds    = [2]float64{1e-8, 1e-4}
)

// maternKernel implements C*Matern(nu=5/2, lengthScale) + WhiteKernel(sigma2).
type maternKernel struct {
	constant    float64
	lengthScale []float64 // length 1 (isotropic) or dim (anisotropic)
	noiseVar    float64
}

// NewMatern52 constructs an isotropic-or-anisotropic Matérn(5/2) kernel with
// the given initial hyperparameters.
func NewMatern52(constant float64, lengthScale []float64, noiseVar float64) Kernel {
	return &maternKernel{constant: constant, lengthScale: append([]float64{}, lengthScale...), noiseVar: noiseVar}
}

func (k *maternKernel) scaledDistSq(x1, x2 []float64) float64 {
	sum := 0.0
	for i := range x1 {
		ls := k.lengthScale[0]
		if len(k.lengthScale) > 1 {
			ls = k.lengthScale[i]
		}
		d := (x1[i] - x2[i]) / ls
		sum += d * d
	}
	return sum
}

func (k *maternKernel) Cov(x1, x2 []float64) float64 {
	r2 := k.scaledDistSq(x1, x2)
	r := math.Sqrt(r2)
	// Matern nu=5/2: (1 + sqrt(5)*r + 5/3*r^2) * exp(-sqrt(5)*r)
	sqrt5r := math.Sqrt(5) * r
	val := (1 + sqrt5r + 5.0/3.0*r2) * math.Exp(-sqrt5r)
	return k.constant * val
}

func (k *maternKernel) NumHyperparams() int { return 1 + len(k.lengthScale) + 1 }

func (k *maternKernel) NoiseVariance() float64 { return k.noiseVar }

func (k *maternKernel) WithTheta(theta []float64) Kernel {
	n := len(theta)
	ls := append([]float64{}, theta[1:n-1]...)
	return &maternKernel{constant: theta[0], lengthScale: ls, noiseVar: theta[n-1]}
}

func (k *maternKernel) Bounds() (lb, ub []float64) {
	nLS := len(k.lengthScale)
	lb = make([]float64, 1+nLS+1)
	ub = make([]float64, 1+nLS+1)
	lb[0], ub[0] = ConstantBounds[0], ConstantBounds[1]
	for i := 0; i < nLS; i++ {
		lb[1+i], ub[1+i] = LengthBounds[0], LengthBounds[1]
	}
	lb[1+nLS], ub[1+nLS] = NoiseBounds[0], NoiseBounds[1]
	return lb, ub
}

// rbfKernel implements C*RBF(lengthScale) + WhiteKernel(sigma2).
type rbfKernel struct {
	constant    float64
	lengthScale []float64
	noiseVar    float64
}

// NewRBF constructs an isotropic-or-anisotropic squared-exponential kernel.
func NewRBF(constant float64, lengthScale []float64, noiseVar float64) Kernel {
	return &rbfKernel{constant: constant, lengthScale: append([]float64{}, lengthScale...), noiseVar: noiseVar}
}

func (k *rbfKernel) scaledDistSq(x1, x2 []float64) float64 {
	sum := 0.0
	for i := range x1 {
		ls := k.lengthScale[0]
		if len(k.lengthScale) > 1 {
			ls = k.lengthScale[i]
		}
		d := (x1[i] - x2[i]) / ls
		sum += d * d
	}
	return sum
}

func (k *rbfKernel) Cov(x1, x2 []float64) float64 {
	r2 := k.scaledDistSq(x1, x2)
	return k.constant * math.Exp(-0.5*r2)
}

func (k *rbfKernel) NumHyperparams() int { return 1 + len(k.lengthScale) + 1 }

func (k *rbfKernel) NoiseVariance() float64 { return k.noiseVar }

func (k *rbfKernel) WithTheta(theta []float64) Kernel {
	n := len(theta)
	ls := append([]float64{}, theta[1:n-1]...)
	return &rbfKernel{constant: theta[0], lengthScale: ls, noiseVar: theta[n-1]}
}

func (k *rbfKernel) Bounds() (lb, ub []float64) {
	nLS := len(k.lengthScale)
	lb = make([]float64, 1+nLS+1)
	ub = make([]float64, 1+nLS+1)
	lb[0], ub[0] = ConstantBounds[0], ConstantBounds[1]
	for i := 0; i < nLS; i++ {
		lb[1+i], ub[1+i] = LengthBounds[0], LengthBounds[1]
	}
	lb[1+nLS], ub[1+nLS] = NoiseBounds[0], NoiseBounds[1]
	return lb, ub
}
