// Package conformance checks that a tensor.Backend implements the kernel
// contract: every kernel is run on small inputs and compared with host results.
package conformance

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/born-ml/gradcore/internal/tensor"
	"github.com/rs/zerolog/log"
)

// tolerance is the absolute error allowed between a kernel and its reference.
const tolerance = 1e-5

// Result is the outcome of one kernel check.
type Result struct {
	Kernel   string
	Err      error
	Duration time.Duration
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Report collects the results of Run for one backend.
type Report struct {
	Backend string
	Device  tensor.Device
	Results []Result
}

// Passed reports whether every check succeeded.
func (r Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return true
}

// Failures returns the failed checks.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the failures into one error, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failures() {
		errs = append(errs, fmt.Errorf("%s: %w", res.Kernel, res.Err))
	}
	return errors.Join(errs...)
}

// String summarizes the report, one line per check.
func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", r.Backend, r.Device)
	for _, res := range r.Results {
		status := "ok"
		if !res.Passed() {
			status = "FAIL: " + res.Err.Error()
		}
		fmt.Fprintf(&sb, "  %-12s %s\n", res.Kernel, status)
	}
	return sb.String()
}

// check is one named kernel test.
type check struct {
	name string
	run  func(h *harness) error
}

var checks = []check{
	{"fill", checkFill},
	{"read_write", checkReadWrite},
	{"add", elementwise(func(be tensor.Backend, d, a, b tensor.Buffer) error { return be.Add(d, a, b) },
		func(a, b float32) float32 { return a + b })},
	{"sub", elementwise(func(be tensor.Backend, d, a, b tensor.Buffer) error { return be.Sub(d, a, b) },
		func(a, b float32) float32 { return a - b })},
	{"mul", elementwise(func(be tensor.Backend, d, a, b tensor.Buffer) error { return be.Mul(d, a, b) },
		func(a, b float32) float32 { return a * b })},
	{"div", elementwise(func(be tensor.Backend, d, a, b tensor.Buffer) error { return be.Div(d, a, b) },
		func(a, b float32) float32 { return a / b })},
	{"equal", elementwise(func(be tensor.Backend, d, a, b tensor.Buffer) error { return be.Equal(d, a, b, 0.5) },
		func(a, b float32) float32 {
			if math.Abs(float64(a-b)) < 0.5 {
				return 1
			}
			return 0
		})},
	{"square", unaryCheck(func(be tensor.Backend, d, x tensor.Buffer) error { return be.Square(d, x) },
		func(x float32) float32 { return x * x })},
	{"scale", unaryCheck(func(be tensor.Backend, d, x tensor.Buffer) error { return be.Scale(d, x, -1.5) },
		func(x float32) float32 { return -1.5 * x })},
	{"add_scaled", checkAddScaled},
	{"sum", checkSum},
	{"broadcast", checkBroadcast},
	{"length_mismatch", checkLengthMismatch},
}

// Run executes every check against b and returns the report.
// Buffers allocated by a check are freed when it finishes.
func Run(b tensor.Backend) Report {
	report := Report{Backend: b.Name(), Device: b.Device()}
	for _, c := range checks {
		h := &harness{backend: b}
		start := time.Now()
		err := c.run(h)
		h.free()
		report.Results = append(report.Results, Result{Kernel: c.name, Err: err, Duration: time.Since(start)})
	}
	log.Debug().
		Str("backend", report.Backend).
		Bool("passed", report.Passed()).
		Int("checks", len(report.Results)).
		Msg("conformance run")
	return report
}

// Inputs shared by the element-wise checks. lhsValues is long enough to span
// more than one accelerator workgroup.
var (
	lhsValues = ramp(300, -2, 0.0625)
	rhsValues = ramp(300, 0.5, 0.03125)
)

func ramp(n int, start, step float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)*step
	}
	return out
}

// harness tracks the buffers of one check.
type harness struct {
	backend tensor.Backend
	bufs    []tensor.Buffer
}

func (h *harness) upload(data []float32) (tensor.Buffer, error) {
	buf, err := h.alloc(len(data))
	if err != nil {
		return nil, err
	}
	return buf, h.backend.Write(buf, data)
}

func (h *harness) alloc(n int) (tensor.Buffer, error) {
	buf, err := h.backend.Allocate(n)
	if err != nil {
		return nil, err
	}
	h.bufs = append(h.bufs, buf)
	return buf, nil
}

func (h *harness) free() {
	for _, buf := range h.bufs {
		h.backend.Free(buf)
	}
}

// expect reads buf and compares it with want.
func (h *harness) expect(buf tensor.Buffer, want []float32) error {
	got, err := h.backend.Read(buf)
	if err != nil {
		return err
	}
	return compare(got, want)
}

func compare(got, want []float32) error {
	if len(got) != len(want) {
		return fmt.Errorf("got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tolerance*math.Max(1, math.Abs(float64(want[i]))) {
			return fmt.Errorf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}
	return nil
}

func checkFill(h *harness) error {
	dst, err := h.alloc(257)
	if err != nil {
		return err
	}
	if err := h.backend.Fill(dst, 3.25); err != nil {
		return err
	}
	want := make([]float32, 257)
	for i := range want {
		want[i] = 3.25
	}
	return h.expect(dst, want)
}

func checkReadWrite(h *harness) error {
	buf, err := h.upload(lhsValues)
	if err != nil {
		return err
	}
	if err := h.expect(buf, lhsValues); err != nil {
		return err
	}
	empty, err := h.upload(nil)
	if err != nil {
		return err
	}
	return h.expect(empty, []float32{})
}

func elementwise(
	kernel func(be tensor.Backend, dst, a, b tensor.Buffer) error,
	ref func(a, b float32) float32,
) func(h *harness) error {
	return func(h *harness) error {
		a, err := h.upload(lhsValues)
		if err != nil {
			return err
		}
		b, err := h.upload(rhsValues)
		if err != nil {
			return err
		}
		dst, err := h.alloc(len(lhsValues))
		if err != nil {
			return err
		}
		if err := kernel(h.backend, dst, a, b); err != nil {
			return err
		}
		want := make([]float32, len(lhsValues))
		for i := range want {
			want[i] = ref(lhsValues[i], rhsValues[i])
		}
		return h.expect(dst, want)
	}
}

func unaryCheck(
	kernel func(be tensor.Backend, dst, x tensor.Buffer) error,
	ref func(x float32) float32,
) func(h *harness) error {
	return func(h *harness) error {
		x, err := h.upload(lhsValues)
		if err != nil {
			return err
		}
		dst, err := h.alloc(len(lhsValues))
		if err != nil {
			return err
		}
		if err := kernel(h.backend, dst, x); err != nil {
			return err
		}
		want := make([]float32, len(lhsValues))
		for i, v := range lhsValues {
			want[i] = ref(v)
		}
		return h.expect(dst, want)
	}
}

func checkAddScaled(h *harness) error {
	dst, err := h.upload(rhsValues)
	if err != nil {
		return err
	}
	x, err := h.upload(lhsValues)
	if err != nil {
		return err
	}
	if err := h.backend.AddScaled(dst, 0.25, x); err != nil {
		return err
	}
	want := make([]float32, len(rhsValues))
	for i := range want {
		want[i] = rhsValues[i] + 0.25*lhsValues[i]
	}
	return h.expect(dst, want)
}

func checkSum(h *harness) error {
	x, err := h.upload(lhsValues)
	if err != nil {
		return err
	}
	dst, err := h.alloc(1)
	if err != nil {
		return err
	}
	if err := h.backend.Sum(dst, x); err != nil {
		return err
	}
	var want float64
	for _, v := range lhsValues {
		want += float64(v)
	}
	return h.expect(dst, []float32{float32(want)})
}

func checkBroadcast(h *harness) error {
	src, err := h.upload([]float32{-7})
	if err != nil {
		return err
	}
	dst, err := h.alloc(300)
	if err != nil {
		return err
	}
	if err := h.backend.Broadcast(dst, src); err != nil {
		return err
	}
	want := make([]float32, 300)
	for i := range want {
		want[i] = -7
	}
	return h.expect(dst, want)
}

func checkLengthMismatch(h *harness) error {
	a, err := h.alloc(2)
	if err != nil {
		return err
	}
	b, err := h.alloc(3)
	if err != nil {
		return err
	}
	if err := h.backend.Add(a, a, b); !errors.Is(err, tensor.ErrShapeMismatch) {
		return fmt.Errorf("add with mismatched lengths: got %v, want %v", err, tensor.ErrShapeMismatch)
	}
	return nil
}
