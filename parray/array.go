package parray

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/exp/slices"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

// ElementArray is a finite ordered sequence of group elements supporting the
// array-shaped operations spec section 3 requires: permute, mul, expProd,
// extract(keepMask), copyOfRange, and element-wise exp.
type ElementArray struct {
	Elements []group.Element
}

// NewElementArray wraps a slice of elements without copying.
func NewElementArray(elements []group.Element) ElementArray {
	return ElementArray{Elements: elements}
}

// Len returns the array's length.
func (a ElementArray) Len() int { return len(a.Elements) }

// Permute returns a new array with Elements[i] = a.Elements[pi.Map(i)],
// i.e. the array re-indexed by pi.
func (a ElementArray) Permute(pi Permutation) (ElementArray, error) {
	if pi.Len() != len(a.Elements) {
		return ElementArray{}, fmt.Errorf("parray: permutation size %d does not match array size %d", pi.Len(), len(a.Elements))
	}
	out := make([]group.Element, len(a.Elements))
	for i := range out {
		out[i] = a.Elements[pi.Map(i)]
	}
	return ElementArray{Elements: out}, nil
}

// Mul returns the componentwise product of a and b.
func (a ElementArray) Mul(b ElementArray) (ElementArray, error) {
	if len(a.Elements) != len(b.Elements) {
		return ElementArray{}, fmt.Errorf("parray: mul size mismatch %d != %d", len(a.Elements), len(b.Elements))
	}
	out := make([]group.Element, len(a.Elements))
	for i := range out {
		out[i] = a.Elements[i].Mul(b.Elements[i])
	}
	return ElementArray{Elements: out}, nil
}

// workerCount bounds the number of goroutines used for chunked element-array
// arithmetic, matching the teacher's convention of sizing bounded local task
// fan-out off the runtime's detected core count rather than launching one
// goroutine per element.
func workerCount(n int) int {
	w := cpuid.CPU.LogicalCores
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// ExpProd computes the batched product prod_i a.Elements[i]^exps[i], the
// core operation of every Sigma-protocol verification equation in this
// module (e.g. A = prod u_i^e_i). Work is split across a bounded worker pool
// sized by workerCount and combined sequentially, matching the "no global
// scheduler, concurrency local to a step" model of spec section 5.
func (a ElementArray) ExpProd(exps []group.RingElement) (group.Element, error) {
	if len(exps) != len(a.Elements) {
		return nil, fmt.Errorf("parray: expProd size mismatch %d != %d", len(exps), len(a.Elements))
	}
	if len(a.Elements) == 0 {
		return nil, fmt.Errorf("parray: expProd on empty array")
	}
	identity := a.Elements[0].Mul(a.Elements[0].Inv())
	w := workerCount(len(a.Elements))
	partials := make([]group.Element, w)
	var wg sync.WaitGroup
	chunk := (len(a.Elements) + w - 1) / w
	for wk := 0; wk < w; wk++ {
		lo, hi := wk*chunk, (wk+1)*chunk
		if hi > len(a.Elements) {
			hi = len(a.Elements)
		}
		if lo >= hi {
			partials[wk] = identity
			continue
		}
		wg.Add(1)
		go func(wk, lo, hi int) {
			defer wg.Done()
			acc := identity
			for i := lo; i < hi; i++ {
				acc = acc.Mul(a.Elements[i].Exp(exps[i]))
			}
			partials[wk] = acc
		}(wk, lo, hi)
	}
	wg.Wait()
	acc := identity
	for _, p := range partials {
		acc = acc.Mul(p)
	}
	return acc, nil
}

// ExpByVector raises each element to its own exponent: out[i] = a[i]^exps[i].
func (a ElementArray) ExpByVector(exps []group.RingElement) (ElementArray, error) {
	if len(exps) != len(a.Elements) {
		return ElementArray{}, fmt.Errorf("parray: exp size mismatch %d != %d", len(exps), len(a.Elements))
	}
	out := make([]group.Element, len(a.Elements))
	for i := range out {
		out[i] = a.Elements[i].Exp(exps[i])
	}
	return ElementArray{Elements: out}, nil
}

// ExpByScalar raises every element to the same exponent x.
func (a ElementArray) ExpByScalar(x group.RingElement) ElementArray {
	out := make([]group.Element, len(a.Elements))
	for i := range out {
		out[i] = a.Elements[i].Exp(x)
	}
	return ElementArray{Elements: out}
}

// Extract returns the sub-array of elements whose index is set in keepMask,
// preserving order. len(keepMask) must equal a.Len().
func (a ElementArray) Extract(keepMask []bool) (ElementArray, error) {
	if len(keepMask) != len(a.Elements) {
		return ElementArray{}, fmt.Errorf("parray: keepMask length %d does not match array size %d", len(keepMask), len(a.Elements))
	}
	out := make([]group.Element, 0, len(a.Elements))
	for i, keep := range keepMask {
		if keep {
			out = append(out, a.Elements[i])
		}
	}
	return ElementArray{Elements: out}, nil
}

// CopyOfRange returns a_copy[from:to), independently allocated so that
// mutation of the result never aliases the receiver.
func (a ElementArray) CopyOfRange(from, to int) (ElementArray, error) {
	if from < 0 || to > len(a.Elements) || from > to {
		return ElementArray{}, fmt.Errorf("parray: invalid range [%d,%d) for array of size %d", from, to, len(a.Elements))
	}
	out := slices.Clone(a.Elements[from:to])
	return ElementArray{Elements: out}, nil
}

// CountSet counts how many entries of a boolean mask are true, used to
// validate a published keepList has exactly n' ones (spec 4.G).
func CountSet(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}
