package main

import (
	"fmt"
	"math"
)

// objFunc evaluates one parameter vector (in space.Parameters order) into
// objective, feature, and constraint vectors. Features/constraints are nil
// when the problem declares none.
type objFunc func(x []float64) (y, f, c []float64)

// objectiveRegistry maps obj_fun_name to a concrete in-process
// implementation, replacing the original's module/name string eval (spec
// section 9's redesign note: "replace with a registry of named factories
// closed over at startup; avoid runtime code evaluation").
var objectiveRegistry = map[string]func() objFunc{
	"sphere": func() objFunc { return sphereObj },
	"zdt1":   func() objFunc { return zdt1Obj },
}

func resolveObjective(name string) (objFunc, error) {
	factory, ok := objectiveRegistry[name]
	if !ok {
		return nil, fmt.Errorf("dmosoptctl: unknown obj_fun_name %q", name)
	}
	return factory(), nil
}

// sphereObj is a two-objective sanity-check problem: minimize distance to
// the origin and distance to (1,1,...,1).
func sphereObj(x []float64) (y, f, c []float64) {
	var sumSq, sumSqShift float64
	for _, v := range x {
		sumSq += v * v
		d := v - 1
		sumSqShift += d * d
	}
	return []float64{sumSq, sumSqShift}, nil, nil
}

// zdt1Obj implements the ZDT1 benchmark from spec section 8, scenario S1:
// f1 = x1, g = 1 + 9*mean(x2..xn), f2 = g*(1 - sqrt(f1/g)).
func zdt1Obj(x []float64) (y, f, c []float64) {
	f1 := x[0]
	var sum float64
	for _, v := range x[1:] {
		sum += v
	}
	g := 1.0
	if n := len(x) - 1; n > 0 {
		g += 9.0 * sum / float64(n)
	}
	ratio := f1 / g
	if ratio < 0 {
		ratio = 0
	}
	f2 := g * (1.0 - math.Sqrt(ratio))
	return []float64{f1, f2}, nil, nil
}
