package forecast

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// lstmLayer holds the fused gate weights of one LSTM layer. Rows of w are
// grouped input, forget, cell and output gate; columns are the layer input
// followed by the previous hidden state.
type lstmLayer struct {
	in, hidden int
	w          *mat.Dense
	b          *mat.VecDense
	dw         *mat.Dense
	db         *mat.VecDense
}

type lstmStep struct {
	z                 *mat.VecDense
	i, f, g, o, c, tc []float64
	cPrev             []float64
}

func newLSTMLayer(in, hidden int, rng *rand.Rand) *lstmLayer {
	cols := in + hidden
	w := mat.NewDense(4*hidden, cols, nil)
	inLimit := math.Sqrt(6 / float64(in+4*hidden))
	recLimit := math.Sqrt(6 / float64(hidden+4*hidden))
	for r := 0; r < 4*hidden; r++ {
		for c := 0; c < cols; c++ {
			limit := inLimit
			if c >= in {
				limit = recLimit
			}
			w.Set(r, c, (2*rng.Float64()-1)*limit)
		}
	}
	b := mat.NewVecDense(4*hidden, nil)
	for k := hidden; k < 2*hidden; k++ {
		b.SetVec(k, 1)
	}
	return &lstmLayer{
		in: in, hidden: hidden,
		w: w, b: b,
		dw: mat.NewDense(4*hidden, cols, nil),
		db: mat.NewVecDense(4*hidden, nil),
	}
}

func (l *lstmLayer) forward(xs [][]float64) ([][]float64, []lstmStep) {
	h := l.hidden
	hPrev := make([]float64, h)
	cPrev := make([]float64, h)
	outs := make([][]float64, len(xs))
	steps := make([]lstmStep, len(xs))
	gates := mat.NewVecDense(4*h, nil)
	for t, x := range xs {
		zd := make([]float64, l.in+h)
		copy(zd, x)
		copy(zd[l.in:], hPrev)
		z := mat.NewVecDense(len(zd), zd)
		gates.MulVec(l.w, z)
		gates.AddVec(gates, l.b)

		st := lstmStep{
			z: z, cPrev: cPrev,
			i: make([]float64, h), f: make([]float64, h), g: make([]float64, h),
			o: make([]float64, h), c: make([]float64, h), tc: make([]float64, h),
		}
		out := make([]float64, h)
		for k := 0; k < h; k++ {
			st.i[k] = sigmoid(gates.AtVec(k))
			st.f[k] = sigmoid(gates.AtVec(h + k))
			st.g[k] = math.Tanh(gates.AtVec(2*h + k))
			st.o[k] = sigmoid(gates.AtVec(3*h + k))
			st.c[k] = st.f[k]*cPrev[k] + st.i[k]*st.g[k]
			st.tc[k] = math.Tanh(st.c[k])
			out[k] = st.o[k] * st.tc[k]
		}
		steps[t] = st
		outs[t] = out
		hPrev, cPrev = out, st.c
	}
	return outs, steps
}

// backward accumulates weight gradients for one sequence and returns the
// gradient with respect to each input. dOuts[t] may be nil.
func (l *lstmLayer) backward(steps []lstmStep, dOuts [][]float64) [][]float64 {
	h := l.hidden
	dh := make([]float64, h)
	dc := make([]float64, h)
	dg := mat.NewVecDense(4*h, nil)
	dz := mat.NewVecDense(l.in+h, nil)
	dxs := make([][]float64, len(steps))
	for t := len(steps) - 1; t >= 0; t-- {
		st := steps[t]
		if dOuts[t] != nil {
			for k := range dh {
				dh[k] += dOuts[t][k]
			}
		}
		for k := 0; k < h; k++ {
			do := dh[k] * st.tc[k]
			dck := dc[k] + dh[k]*st.o[k]*(1-st.tc[k]*st.tc[k])
			dc[k] = dck * st.f[k]
			dg.SetVec(k, dck*st.g[k]*st.i[k]*(1-st.i[k]))
			dg.SetVec(h+k, dck*st.cPrev[k]*st.f[k]*(1-st.f[k]))
			dg.SetVec(2*h+k, dck*st.i[k]*(1-st.g[k]*st.g[k]))
			dg.SetVec(3*h+k, do*st.o[k]*(1-st.o[k]))
		}
		l.dw.RankOne(l.dw, 1, dg, st.z)
		l.db.AddVec(l.db, dg)
		dz.MulVec(l.w.T(), dg)
		dx := make([]float64, l.in)
		for k := range dx {
			dx[k] = dz.AtVec(k)
		}
		for k := range dh {
			dh[k] = dz.AtVec(l.in + k)
		}
		dxs[t] = dx
	}
	return dxs
}

// Network is a stack of LSTM layers with a single-output dense head reading
// the last hidden state.
type Network struct {
	layers  []*lstmLayer
	headW   []float64
	headB   []float64
	dHeadW  []float64
	dHeadB  []float64
	dropout float64
	rng     *rand.Rand
	opt     *adam
}

// NetworkConfig sizes the network and its optimiser.
type NetworkConfig struct {
	Layers       []int
	Dropout      float64
	LearningRate float64
	Seed         uint64
}

// NewNetwork builds a network for univariate sequences.
func NewNetwork(cfg NetworkConfig) *Network {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	n := &Network{dropout: cfg.Dropout, rng: rng}
	in := 1
	for _, h := range cfg.Layers {
		n.layers = append(n.layers, newLSTMLayer(in, h, rng))
		in = h
	}
	limit := math.Sqrt(6 / float64(in+1))
	n.headW = make([]float64, in)
	for i := range n.headW {
		n.headW[i] = (2*rng.Float64() - 1) * limit
	}
	n.headB = []float64{0}
	n.dHeadW = make([]float64, in)
	n.dHeadB = []float64{0}

	var params []param
	for _, l := range n.layers {
		params = append(params,
			param{w: l.w.RawMatrix().Data, g: l.dw.RawMatrix().Data},
			param{w: l.b.RawVector().Data, g: l.db.RawVector().Data},
		)
	}
	params = append(params, param{w: n.headW, g: n.dHeadW}, param{w: n.headB, g: n.dHeadB})
	n.opt = newAdam(cfg.LearningRate, params)
	return n
}

type pass struct {
	steps [][]lstmStep
	masks [][][]float64
	last  []float64
}

func (n *Network) forward(seq []float64, train bool) (float64, pass) {
	xs := make([][]float64, len(seq))
	for t, v := range seq {
		xs[t] = []float64{v}
	}
	var p pass
	for li, l := range n.layers {
		outs, steps := l.forward(xs)
		p.steps = append(p.steps, steps)
		var mask [][]float64
		if train && n.dropout > 0 && li < len(n.layers)-1 {
			keep := 1 - n.dropout
			mask = make([][]float64, len(outs))
			for t, o := range outs {
				mask[t] = make([]float64, len(o))
				dropped := make([]float64, len(o))
				for k, v := range o {
					if n.rng.Float64() < keep {
						mask[t][k] = 1 / keep
					}
					dropped[k] = v * mask[t][k]
				}
				outs[t] = dropped
			}
		}
		p.masks = append(p.masks, mask)
		xs = outs
	}
	p.last = xs[len(xs)-1]
	y := n.headB[0]
	for k, v := range p.last {
		y += n.headW[k] * v
	}
	return y, p
}

func (n *Network) backward(p pass, dy float64) {
	for k, v := range p.last {
		n.dHeadW[k] += dy * v
	}
	n.dHeadB[0] += dy
	T := len(p.steps[0])
	dOuts := make([][]float64, T)
	dLast := make([]float64, len(p.last))
	for k := range dLast {
		dLast[k] = dy * n.headW[k]
	}
	dOuts[T-1] = dLast
	for li := len(n.layers) - 1; li >= 0; li-- {
		dxs := n.layers[li].backward(p.steps[li], dOuts)
		if li == 0 {
			break
		}
		if mask := p.masks[li-1]; mask != nil {
			for t := range dxs {
				for k := range dxs[t] {
					dxs[t][k] *= mask[t][k]
				}
			}
		}
		dOuts = dxs
	}
}

func (n *Network) zeroGrad() {
	for _, l := range n.layers {
		l.dw.Zero()
		l.db.Zero()
	}
	clear(n.dHeadW)
	n.dHeadB[0] = 0
}

// Predict runs seq through the network with dropout disabled.
func (n *Network) Predict(seq []float64) float64 {
	y, _ := n.forward(seq, false)
	return y
}

// Fit trains on (xs, ys) with mean squared error, shuffling every epoch.
// onEpoch, if set, receives the mean training loss of each epoch.
func (n *Network) Fit(ctx context.Context, xs [][]float64, ys []float64, epochs, batch int, onEpoch func(epoch int, loss float64)) error {
	if batch <= 0 {
		batch = len(xs)
	}
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	for e := 1; e <= epochs; e++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		n.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		var total float64
		for start := 0; start < len(order); start += batch {
			end := min(start+batch, len(order))
			size := float64(end - start)
			n.zeroGrad()
			for _, idx := range order[start:end] {
				pred, p := n.forward(xs[idx], true)
				diff := pred - ys[idx]
				total += diff * diff
				n.backward(p, 2*diff/size)
			}
			n.opt.step()
		}
		if onEpoch != nil {
			onEpoch(e, total/float64(len(xs)))
		}
	}
	return nil
}
