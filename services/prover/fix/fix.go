// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fix provides fuel-bounded and unbounded fixpoint combinators.
//
// A recursive computation is written as a step function that receives
// its own recursive handle as an argument. The bounded variants thread
// a fuel counter through the handle so that recursion terminates even
// when the step function alone would not; when the fuel runs out the
// base function decides the result.
//
// # Thread Safety
//
// The combinators hold no state. They are safe for concurrent use as
// long as the supplied step functions are.
package fix

// Bfix computes a fuel-bounded fixpoint.
//
// # Description
//
// With fuel 0 the base function is applied directly. With fuel n+1 the
// step function rec runs with a recursive handle that carries fuel n,
// so at most fuel nested calls of rec can occur before base takes
// over.
//
// # Inputs
//   - base: result for an argument once the fuel is exhausted.
//   - rec: one step of the recursion; its first argument is the
//     recursive handle for the remaining fuel.
//   - fuel: maximum recursion depth.
//   - a: initial argument.
//
// # Outputs
//   - The computed value.
func Bfix[A, B any](base func(A) B, rec func(func(A) B, A) B, fuel uint, a A) B {
	if fuel == 0 {
		return base(a)
	}
	return rec(func(x A) B { return Bfix(base, rec, fuel-1, x) }, a)
}

// Fix computes an unbounded fixpoint. The step function receives a
// self-referential handle; termination is its own responsibility.
func Fix[A, B any](rec func(func(A) B, A) B, a A) B {
	var self func(A) B
	self = func(x A) B { return rec(self, x) }
	return self(a)
}

// BfixE is Bfix for error-returning computations. Errors surface
// through the recursive handle unchanged, so a step function can
// inspect or replace them before returning.
func BfixE[A, B any](base func(A) (B, error), rec func(func(A) (B, error), A) (B, error), fuel uint, a A) (B, error) {
	if fuel == 0 {
		return base(a)
	}
	return rec(func(x A) (B, error) { return BfixE(base, rec, fuel-1, x) }, a)
}

// FixE is Fix for error-returning computations.
func FixE[A, B any](rec func(func(A) (B, error), A) (B, error), a A) (B, error) {
	var self func(A) (B, error)
	self = func(x A) (B, error) { return rec(self, x) }
	return self(a)
}

// Bfix2 is Bfix over two arguments, saving callers from packing them
// into a tuple struct.
func Bfix2[A1, A2, B any](base func(A1, A2) B, rec func(func(A1, A2) B, A1, A2) B, fuel uint, a1 A1, a2 A2) B {
	if fuel == 0 {
		return base(a1, a2)
	}
	return rec(func(x1 A1, x2 A2) B { return Bfix2(base, rec, fuel-1, x1, x2) }, a1, a2)
}

// Fix2 is Fix over two arguments.
func Fix2[A1, A2, B any](rec func(func(A1, A2) B, A1, A2) B, a1 A1, a2 A2) B {
	var self func(A1, A2) B
	self = func(x1 A1, x2 A2) B { return rec(self, x1, x2) }
	return self(a1, a2)
}
