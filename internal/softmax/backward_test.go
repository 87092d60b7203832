package softmax

import (
	"math"
	"math/rand"
	"testing"

	"github.com/071975/NeMo/internal/parallel"
)

// TestBackwardMatchesJacobian checks the closed-form gradient against the
// explicit softmax Jacobian-vector product for one row.
func TestBackwardMatchesJacobian(t *testing.T) {
	keyLen := 12
	scale := 0.5
	rng := rand.New(rand.NewSource(31))

	src := make([]float64, keyLen)
	grad := make([]float64, keyLen)
	for i := range src {
		src[i] = rng.NormFloat64()
		grad[i] = rng.NormFloat64()
	}
	mask := make([]uint8, keyLen)

	p := make([]float64, keyLen)
	Forward(p, src, mask, scale, 1, keyLen, 1, 1, 1)

	gradIn := make([]float64, keyLen)
	Backward(gradIn, grad, p, scale, 1, keyLen, 1, 1)

	// Explicit JVP: dL/dx_i = scale * p_i * (g_i - sum_j g_j p_j).
	dot := 0.0
	for j := range p {
		dot += grad[j] * p[j]
	}
	for i := range p {
		want := scale * p[i] * (grad[i] - dot)
		if math.Abs(gradIn[i]-want) > 1e-12 {
			t.Errorf("position %d: gradIn = %v, want %v", i, gradIn[i], want)
		}
	}
}

// TestBackwardFiniteDifference validates the gradient numerically: for
// L(x) = sum_j g_j * softmax(x*scale)_j, central differences on x must
// match the backward kernel's output.
func TestBackwardFiniteDifference(t *testing.T) {
	keyLen := 8
	scale := 0.75
	eps := 1e-6
	rng := rand.New(rand.NewSource(37))

	src := make([]float64, keyLen)
	grad := make([]float64, keyLen)
	for i := range src {
		src[i] = rng.NormFloat64()
		grad[i] = rng.NormFloat64()
	}
	mask := make([]uint8, keyLen)
	mask[2] = 1 // one suppressed position

	forward := func(x []float64) []float64 {
		out := make([]float64, keyLen)
		Forward(out, x, mask, scale, 1, keyLen, 1, 1, 1)
		return out
	}

	p := forward(src)
	gradIn := make([]float64, keyLen)
	Backward(gradIn, grad, p, scale, 1, keyLen, 1, 1)

	loss := func(out []float64) float64 {
		l := 0.0
		for j := range out {
			l += grad[j] * out[j]
		}
		return l
	}

	for i := 0; i < keyLen; i++ {
		bumped := make([]float64, keyLen)
		copy(bumped, src)
		bumped[i] += eps
		plus := loss(forward(bumped))
		bumped[i] -= 2 * eps
		minus := loss(forward(bumped))

		numeric := (plus - minus) / (2 * eps)
		if math.Abs(gradIn[i]-numeric) > 1e-6 {
			t.Errorf("position %d: analytic %v, numeric %v", i, gradIn[i], numeric)
		}
	}
}

// TestBackwardScaleLinearity verifies scale enters backward as a plain
// multiplicative factor: doubling it doubles every output element.
func TestBackwardScaleLinearity(t *testing.T) {
	keyLen := 24
	rng := rand.New(rand.NewSource(41))

	p := make([]float32, keyLen)
	grad := make([]float32, keyLen)
	sum := float32(0)
	for i := range p {
		p[i] = rng.Float32()
		sum += p[i]
		grad[i] = float32(rng.NormFloat64())
	}
	for i := range p {
		p[i] /= sum
	}

	one := make([]float32, keyLen)
	Backward(one, grad, p, float32(1.0), 1, keyLen, 1, 1)

	two := make([]float32, keyLen)
	Backward(two, grad, p, float32(2.0), 1, keyLen, 1, 1)

	for i := range one {
		if math.Abs(float64(two[i]-2*one[i])) > 1e-6 {
			t.Errorf("position %d: scale 2 gave %v, want %v", i, two[i], 2*one[i])
		}
	}
}

func TestBackwardZeroKeyLen(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("key_len 0 must be a no-op, panicked: %v", r)
		}
	}()
	Backward(nil, []float32{}, nil, float32(1.0), 2, 0, 1, 3)
}

func TestBackwardKeyLenTooLarge(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("key_len above the maximum must panic")
		}
	}()
	n := MaxElements + 1
	Backward(make([]float32, n), make([]float32, n), make([]float32, n), float32(1.0), 1, n, 1, 1)
}

func TestBackwardSerialMatchesParallel(t *testing.T) {
	batches, attnHeads, queryLen, keyLen := 3, 2, 6, 80
	rows := batches * attnHeads * queryLen
	rng := rand.New(rand.NewSource(43))

	grad := make([]float32, rows*keyLen)
	output := make([]float32, rows*keyLen)
	for i := range grad {
		grad[i] = float32(rng.NormFloat64())
		output[i] = rng.Float32()
	}

	serial := make([]float32, len(grad))
	BackwardWithConfig(serial, grad, output, float32(0.5), queryLen, keyLen, batches, attnHeads,
		parallel.Serial())

	concurrent := make([]float32, len(grad))
	BackwardWithConfig(concurrent, grad, output, float32(0.5), queryLen, keyLen, batches, attnHeads,
		parallel.Config{Enabled: true, NumWorkers: 5, MinRowsPerWorker: 1})

	for i := range serial {
		if serial[i] != concurrent[i] {
			t.Fatalf("position %d: serial %v != parallel %v", i, serial[i], concurrent[i])
		}
	}
}
