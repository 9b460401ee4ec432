package complexity

// classifyTime derives a ComplexityBound from the raw counters a function
// walk accumulated, per spec.md §4.4's stated precedence: recursion shape
// dominates loop nesting, then loop depth, then library-call demotions
// (binary search, sort) refine the loop-depth verdict.
func classifyTime(r *funcVisitResult) ComplexityBound {
	if r.selfRecursiveHits >= 2 {
		// Two or more self-calls in one function body (e.g. fib(n-1) +
		// fib(n-2)) is the shape of exponential branching recursion; without
		// seeing the base case's bound we can't rule out memoization, so
		// confidence is capped at 50 per spec.md §4.4.
		return ComplexityBound{Class: ClassExponential, Confidence: 50}
	}

	if r.selfRecursiveHits == 1 {
		// A single self-call could be linear (tail-bounded by a counter) or
		// logarithmic (halving) or worse; without data-flow analysis of the
		// recursive argument we report Unknown rather than guess.
		return ComplexityBound{Class: ClassUnknown, Confidence: 30}
	}

	return classifyByLoopDepth(r)
}

func classifyByLoopDepth(r *funcVisitResult) ComplexityBound {
	switch {
	case r.maxLoopDepth == 0:
		return ComplexityBound{Class: ClassConstant, Confidence: 90}
	case r.maxLoopDepth == 1:
		if r.hasBinarySearch {
			return ComplexityBound{Class: ClassLogarithmic, Confidence: 70}
		}

		if r.hasSort {
			return ComplexityBound{Class: ClassLinearithmic, Confidence: 60}
		}

		return ComplexityBound{Class: ClassLinear, Confidence: 85}
	case r.maxLoopDepth == 2:
		if r.hasBinarySearch {
			return ComplexityBound{Class: ClassLinearithmic, Confidence: 55}
		}

		if r.hasSort {
			return ComplexityBound{Class: ClassLinearithmic, Confidence: 55}
		}

		return ComplexityBound{Class: ClassQuadratic, Confidence: 80}
	default:
		return ComplexityBound{
			Class:      ClassPolynomial,
			Degree:     r.maxLoopDepth,
			Coef:       1,
			Confidence: 75,
		}
	}
}

// classifySpace reports a coarse space-complexity bound: Linear when the
// function declares a growth-capable container (a list/map/buffer whose
// size tracks the input), Constant otherwise. Recursive functions add at
// least linear call-stack space, matching spec.md §4.4's space-complexity
// note that recursion depth counts toward space even with no container.
func classifySpace(r *funcVisitResult) ComplexityBound {
	if r.hasGrowthContainer {
		return ComplexityBound{Class: ClassLinear, Confidence: 70}
	}

	if r.selfRecursiveHits > 0 {
		return ComplexityBound{Class: ClassLinear, Confidence: 55}
	}

	return ComplexityBound{Class: ClassConstant, Confidence: 80}
}
