package eval

import (
	"math"
	"math/bits"
	"math/rand"
	"sort"
	"strconv"
	"sync"

	"github.com/npillmayer/scorex"
)

// Function is a built-in function. All built-ins operate on numbers.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int  // < 0 for an unbounded argument list
	Pure    bool // false for functions with varying results, i.e. RANDOM
	impl    func(args []float64) (float64, error)
}

// Call checks the arity and calls the function. Results which are NaN or
// infinite are reported as a MathDomainError.
func (f *Function) Call(args []float64) (float64, error) {
	if err := f.CheckArity(len(args)); err != nil {
		return 0, err
	}
	x, err := f.impl(args)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, scorex.NewError(scorex.MathDomain, "%s: result out of domain", f.Name)
	}
	return x, nil
}

// CheckArity returns a WrongArgumentCount error if f does not accept n arguments.
func (f *Function) CheckArity(n int) error {
	if n < f.MinArgs || (f.MaxArgs >= 0 && n > f.MaxArgs) {
		return scorex.NewError(scorex.WrongArgumentCount, "%s expects %s, got %d", f.Name, f.arity(), n)
	}
	return nil
}

func (f *Function) arity() string {
	switch {
	case f.MaxArgs < 0:
		return plural(f.MinArgs) + " or more"
	case f.MinArgs == f.MaxArgs:
		return plural(f.MinArgs)
	}
	return strconv.Itoa(f.MinArgs) + " to " + plural(f.MaxArgs)
}

func plural(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return strconv.Itoa(n) + " arguments"
}

// --- Registry --------------------------------------------------------------

// Registry is a read-only table of built-in functions.
type Registry struct {
	functions map[string]*Function
}

var builtins *Registry
var builtinsOnce sync.Once

// Builtins returns the registry of built-in functions. It is created on first
// use and never changed afterwards.
func Builtins() *Registry {
	builtinsOnce.Do(func() {
		builtins = newRegistry()
		tracer().Debugf("registered %d built-in functions", len(builtins.functions))
	})
	return builtins
}

// Lookup finds a function by its upper-case name.
func (r *Registry) Lookup(name string) (*Function, bool) {
	f, ok := r.functions[name]
	return f, ok
}

// Names returns the sorted names of all functions.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for n := range r.functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Size is the number of registered functions.
func (r *Registry) Size() int {
	return len(r.functions)
}

func newRegistry() *Registry {
	r := &Registry{functions: make(map[string]*Function)}
	// trigonometric
	r.unary("SIN", math.Sin)
	r.unary("COS", math.Cos)
	r.unary("TAN", math.Tan)
	r.domain("ASIN", math.Asin, func(x float64) bool { return x >= -1 && x <= 1 })
	r.domain("ACOS", math.Acos, func(x float64) bool { return x >= -1 && x <= 1 })
	r.unary("ATAN", math.Atan)
	r.fixed("ATAN2", 2, func(a []float64) (float64, error) { return math.Atan2(a[0], a[1]), nil })
	// hyperbolic
	r.unary("SINH", math.Sinh)
	r.unary("COSH", math.Cosh)
	r.unary("TANH", math.Tanh)
	r.unary("ASINH", math.Asinh)
	r.domain("ACOSH", math.Acosh, func(x float64) bool { return x >= 1 })
	r.domain("ATANH", math.Atanh, func(x float64) bool { return x > -1 && x < 1 })
	// logarithms and powers
	r.add("LOG", 1, 2, true, logarithm)
	r.domain("LN", math.Log, positive)
	r.domain("LOG10", math.Log10, positive)
	r.domain("LOG2", math.Log2, positive)
	r.unary("EXP", math.Exp)
	r.domain("SQRT", math.Sqrt, func(x float64) bool { return x >= 0 })
	r.unary("CBRT", math.Cbrt)
	r.fixed("POW", 2, func(a []float64) (float64, error) { return math.Pow(a[0], a[1]), nil })
	// rounding
	r.unary("ABS", math.Abs)
	r.add("ROUND", 1, 2, true, round)
	r.unary("FLOOR", math.Floor)
	r.unary("CEIL", math.Ceil)
	r.unary("TRUNC", math.Trunc)
	r.unary("SIGN", sign)
	// aggregates
	r.add("MIN", 1, -1, true, minimum)
	r.add("MAX", 1, -1, true, maximum)
	r.add("SUM", 0, -1, true, sum)
	r.add("AVG", 1, -1, true, average)
	r.add("MEDIAN", 1, -1, true, median)
	r.add("STDDEV", 1, -1, true, func(a []float64) (float64, error) { return math.Sqrt(variance(a)), nil })
	r.add("VARIANCE", 1, -1, true, func(a []float64) (float64, error) { return variance(a), nil })
	// integer arithmetic
	r.fixed("FACTORIAL", 1, factorial)
	r.fixed("COMBINATION", 2, combination)
	r.fixed("PERMUTATION", 2, permutation)
	r.add("GCD", 2, -1, true, gcd)
	r.add("LCM", 2, -1, true, lcm)
	r.fixed("MOD", 2, func(a []float64) (float64, error) {
		if a[1] == 0 {
			return 0, scorex.NewError(scorex.DivisionByZero, "MOD: modulo by zero")
		}
		return math.Mod(a[0], a[1]), nil
	})
	// constants
	r.fixed("PI", 0, func([]float64) (float64, error) { return math.Pi, nil })
	r.fixed("E", 0, func([]float64) (float64, error) { return math.E, nil })
	r.add("RANDOM", 0, 0, false, func([]float64) (float64, error) { return rand.Float64(), nil })
	return r
}

func (r *Registry) add(name string, lo, hi int, pure bool, impl func([]float64) (float64, error)) {
	r.functions[name] = &Function{Name: name, MinArgs: lo, MaxArgs: hi, Pure: pure, impl: impl}
}

func (r *Registry) fixed(name string, n int, impl func([]float64) (float64, error)) {
	r.add(name, n, n, true, impl)
}

func (r *Registry) unary(name string, f func(float64) float64) {
	r.fixed(name, 1, func(a []float64) (float64, error) { return f(a[0]), nil })
}

func (r *Registry) domain(name string, f func(float64) float64, valid func(float64) bool) {
	r.fixed(name, 1, func(a []float64) (float64, error) {
		if !valid(a[0]) {
			return 0, scorex.NewError(scorex.MathDomain, "%s: argument %g out of domain", name, a[0])
		}
		return f(a[0]), nil
	})
}

func positive(x float64) bool { return x > 0 }

// --- Implementations -------------------------------------------------------

// LOG(x) is the natural logarithm, LOG(x, b) the logarithm to base b.
func logarithm(a []float64) (float64, error) {
	if a[0] <= 0 {
		return 0, scorex.NewError(scorex.MathDomain, "LOG: argument %g out of domain", a[0])
	}
	if len(a) == 1 {
		return math.Log(a[0]), nil
	}
	if a[1] <= 0 || a[1] == 1 {
		return 0, scorex.NewError(scorex.MathDomain, "LOG: invalid base %g", a[1])
	}
	return math.Log(a[0]) / math.Log(a[1]), nil
}

// ROUND(x) rounds half away from zero, ROUND(x, d) to d decimal digits.
func round(a []float64) (float64, error) {
	if len(a) == 1 {
		return math.Round(a[0]), nil
	}
	d := math.Trunc(a[1])
	if d < -15 || d > 15 {
		return 0, scorex.NewError(scorex.MathDomain, "ROUND: invalid number of digits %g", a[1])
	}
	p := math.Pow(10, d)
	return math.Round(a[0]*p) / p, nil
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func minimum(a []float64) (float64, error) {
	m := a[0]
	for _, x := range a[1:] {
		m = math.Min(m, x)
	}
	return m, nil
}

func maximum(a []float64) (float64, error) {
	m := a[0]
	for _, x := range a[1:] {
		m = math.Max(m, x)
	}
	return m, nil
}

func sum(a []float64) (float64, error) {
	s := 0.0
	for _, x := range a {
		s += x
	}
	return s, nil
}

func average(a []float64) (float64, error) {
	s, _ := sum(a)
	return s / float64(len(a)), nil
}

func median(a []float64) (float64, error) {
	sorted := append([]float64(nil), a...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}

// variance is the population variance.
func variance(a []float64) float64 {
	mean, _ := average(a)
	v := 0.0
	for _, x := range a {
		v += (x - mean) * (x - mean)
	}
	return v / float64(len(a))
}

// --- Integer functions -----------------------------------------------------

// Limits for integer arguments.
const (
	MaxFactorial   = 20      // 21! exceeds int64
	MaxCombination = 62      // C(63, k) may exceed int64
	maxExactInt    = 1 << 53 // largest float64 with all integers below representable
)

func integer(fname string, x float64) (int64, error) {
	if x != math.Trunc(x) || math.Abs(x) > maxExactInt {
		return 0, scorex.NewError(scorex.MathDomain, "%s: argument %g is not an integer", fname, x)
	}
	return int64(x), nil
}

func natural(fname string, x float64) (uint64, error) {
	n, err := integer(fname, x)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, scorex.NewError(scorex.MathDomain, "%s: argument %g is negative", fname, x)
	}
	return uint64(n), nil
}

// mul multiplies with an overflow check against the int64 range.
func mul(fname string, a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 || lo > math.MaxInt64 {
		return 0, scorex.NewError(scorex.Overflow, "%s: result exceeds the integer range", fname)
	}
	return lo, nil
}

func factorial(a []float64) (float64, error) {
	n, err := natural("FACTORIAL", a[0])
	if err != nil {
		return 0, err
	}
	if n > MaxFactorial {
		return 0, scorex.NewError(scorex.Overflow, "FACTORIAL: argument %d exceeds %d", n, MaxFactorial)
	}
	r := uint64(1)
	for i := uint64(2); i <= n; i++ {
		if r, err = mul("FACTORIAL", r, i); err != nil {
			return 0, err
		}
	}
	return float64(r), nil
}

func combination(a []float64) (float64, error) {
	n, err := natural("COMBINATION", a[0])
	if err != nil {
		return 0, err
	}
	k, err := natural("COMBINATION", a[1])
	if err != nil {
		return 0, err
	}
	if k > n {
		return 0, scorex.NewError(scorex.MathDomain, "COMBINATION: k=%d exceeds n=%d", k, n)
	}
	if n > MaxCombination {
		return 0, scorex.NewError(scorex.Overflow, "COMBINATION: n=%d exceeds %d", n, MaxCombination)
	}
	if k > n-k {
		k = n - k
	}
	// r * (n-i) / (i+1) is exact at every step; use 128 bit intermediates
	r := uint64(1)
	for i := uint64(0); i < k; i++ {
		hi, lo := bits.Mul64(r, n-i)
		if hi >= i+1 {
			return 0, scorex.NewError(scorex.Overflow, "COMBINATION: result exceeds the integer range")
		}
		r, _ = bits.Div64(hi, lo, i+1)
	}
	if r > math.MaxInt64 {
		return 0, scorex.NewError(scorex.Overflow, "COMBINATION: result exceeds the integer range")
	}
	return float64(r), nil
}

func permutation(a []float64) (float64, error) {
	n, err := natural("PERMUTATION", a[0])
	if err != nil {
		return 0, err
	}
	k, err := natural("PERMUTATION", a[1])
	if err != nil {
		return 0, err
	}
	if k > n {
		return 0, scorex.NewError(scorex.MathDomain, "PERMUTATION: k=%d exceeds n=%d", k, n)
	}
	r := uint64(1)
	for i := n - k + 1; i <= n; i++ {
		if r, err = mul("PERMUTATION", r, i); err != nil {
			return 0, err
		}
	}
	return float64(r), nil
}

func gcd2(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func absolutes(fname string, a []float64) ([]uint64, error) {
	ns := make([]uint64, len(a))
	for i, x := range a {
		n, err := integer(fname, x)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			n = -n
		}
		ns[i] = uint64(n)
	}
	return ns, nil
}

func gcd(a []float64) (float64, error) {
	ns, err := absolutes("GCD", a)
	if err != nil {
		return 0, err
	}
	g := ns[0]
	for _, n := range ns[1:] {
		g = gcd2(g, n)
	}
	return float64(g), nil
}

func lcm(a []float64) (float64, error) {
	ns, err := absolutes("LCM", a)
	if err != nil {
		return 0, err
	}
	l := ns[0]
	for _, n := range ns[1:] {
		if l == 0 || n == 0 {
			l = 0
			continue
		}
		if l, err = mul("LCM", l/gcd2(l, n), n); err != nil {
			return 0, err
		}
	}
	return float64(l), nil
}
