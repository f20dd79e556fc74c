package forecast

import "math"

// param pairs a flat weight slice with its gradient.
type param struct {
	w, g []float64
	m, v []float64
}

type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	params                []param
}

func newAdam(lr float64, params []param) *adam {
	for i := range params {
		params[i].m = make([]float64, len(params[i].w))
		params[i].v = make([]float64, len(params[i].w))
	}
	return &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-7, params: params}
}

func (a *adam) step() {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for _, p := range a.params {
		for i, g := range p.g {
			p.m[i] = a.beta1*p.m[i] + (1-a.beta1)*g
			p.v[i] = a.beta2*p.v[i] + (1-a.beta2)*g*g
			p.w[i] -= a.lr * (p.m[i] / c1) / (math.Sqrt(p.v[i]/c2) + a.eps)
		}
	}
}
