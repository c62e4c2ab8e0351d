// Package autodiff provides the derivative-carrying scalar used throughout
// the assembly kernel. An Evaluation bundles a value with a fixed-size set of
// partial derivatives with respect to the primary unknowns of one degree of
// freedom; arithmetic propagates derivatives by the chain rule.
//
// Two flavors coexist at runtime: derivative-carrying Evaluations for the
// "focus" degree of freedom of an assembly call, and constant (decayed)
// Evaluations for everything else. A constant carries no gradient storage, so
// arithmetic against it costs the same as plain float math on the gradient
// side. Comparisons must always go through Value(); they never touch
// derivatives.
package autodiff

import (
	"fmt"
	"math"
)

// Evaluation is a scalar with optional partial derivatives.
// The zero value is the constant 0.
type Evaluation struct {
	val  float64
	grad []float64 // nil for constants
}

// Constant returns an Evaluation with no derivative tracking.
func Constant(v float64) Evaluation {
	return Evaluation{val: v}
}

// Variable returns an Evaluation representing the idx-th of n primary
// unknowns: value v, derivative 1 with respect to unknown idx, 0 elsewhere.
func Variable(v float64, idx, n int) Evaluation {
	if idx < 0 || idx >= n {
		panic(fmt.Sprintf("autodiff: variable index %d out of range [0,%d)", idx, n))
	}
	g := make([]float64, n)
	g[idx] = 1
	return Evaluation{val: v, grad: g}
}

// Value returns the plain value. All sign and zero tests in the kernel
// operate on this, never on derivatives.
func (e Evaluation) Value() float64 { return e.val }

// IsConstant reports whether e carries no derivatives.
func (e Evaluation) IsConstant() bool { return e.grad == nil }

// NumDerivatives returns the gradient length, 0 for constants.
func (e Evaluation) NumDerivatives() int { return len(e.grad) }

// Derivative returns the partial derivative with respect to unknown i.
// Constants report 0 for every unknown.
func (e Evaluation) Derivative(i int) float64 {
	if e.grad == nil {
		return 0
	}
	return e.grad[i]
}

// Decay drops derivative tracking. Idempotent and O(1): no gradient storage
// is copied or allocated.
func (e Evaluation) Decay() Evaluation {
	return Evaluation{val: e.val}
}

// IsFinite reports whether the value and every tracked derivative are finite.
// Used by the optional defined-value assertion in the assembly driver.
func (e Evaluation) IsFinite() bool {
	if math.IsNaN(e.val) || math.IsInf(e.val, 0) {
		return false
	}
	for _, d := range e.grad {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
	}
	return true
}

// combine builds the gradient fa*∇a + fb*∇b, treating a nil gradient as zero.
// Mixing two tracked gradients of different lengths is a contract violation:
// every Evaluation in one assembly call must differentiate with respect to
// the same unknown set.
func combine(a, b Evaluation, fa, fb float64) []float64 {
	if a.grad == nil && b.grad == nil {
		return nil
	}
	if a.grad != nil && b.grad != nil && len(a.grad) != len(b.grad) {
		panic(fmt.Sprintf("autodiff: derivative size mismatch %d vs %d",
			len(a.grad), len(b.grad)))
	}
	n := len(a.grad)
	if n == 0 {
		n = len(b.grad)
	}
	g := make([]float64, n)
	if a.grad != nil {
		for i, d := range a.grad {
			g[i] = fa * d
		}
	}
	if b.grad != nil {
		for i, d := range b.grad {
			g[i] += fb * d
		}
	}
	return g
}

// Add returns a+b.
func (a Evaluation) Add(b Evaluation) Evaluation {
	return Evaluation{val: a.val + b.val, grad: combine(a, b, 1, 1)}
}

// Sub returns a-b.
func (a Evaluation) Sub(b Evaluation) Evaluation {
	return Evaluation{val: a.val - b.val, grad: combine(a, b, 1, -1)}
}

// Mul returns a*b with product-rule derivatives.
func (a Evaluation) Mul(b Evaluation) Evaluation {
	return Evaluation{val: a.val * b.val, grad: combine(a, b, b.val, a.val)}
}

// Div returns a/b with quotient-rule derivatives.
func (a Evaluation) Div(b Evaluation) Evaluation {
	inv := 1 / b.val
	return Evaluation{
		val:  a.val * inv,
		grad: combine(a, b, inv, -a.val*inv*inv),
	}
}

// Neg returns -a.
func (a Evaluation) Neg() Evaluation {
	return a.Scale(-1)
}

// Scale returns a*s for a plain scalar s.
func (a Evaluation) Scale(s float64) Evaluation {
	if a.grad == nil {
		return Evaluation{val: a.val * s}
	}
	g := make([]float64, len(a.grad))
	for i, d := range a.grad {
		g[i] = s * d
	}
	return Evaluation{val: a.val * s, grad: g}
}

// Shift returns a+s for a plain scalar s. The gradient is shared with a,
// which is safe because gradients are never mutated after construction.
func (a Evaluation) Shift(s float64) Evaluation {
	return Evaluation{val: a.val + s, grad: a.grad}
}

// Average returns (a+b)/2.
func Average(a, b Evaluation) Evaluation {
	return a.Add(b).Scale(0.5)
}

func (e Evaluation) String() string {
	if e.grad == nil {
		return fmt.Sprintf("%g", e.val)
	}
	return fmt.Sprintf("%g%v", e.val, e.grad)
}
