package complexity

import (
	"strings"

	"github.com/latticeforge/deepscan/pkg/ast"
)

// nestingStartTypes mirrors the teacher visitor's isNestingStart predicate:
// these node kinds open a new nesting level for both the depth counter and
// cognitive-complexity weighting.
var nestingStartTypes = map[ast.Type]bool{
	ast.TypeIf:     true,
	ast.TypeLoop:   true,
	ast.TypeSwitch: true,
	ast.TypeMatch:  true,
	ast.TypeTry:    true,
	ast.TypeBlock:  true,
}

// decisionPointTypes mirrors isDecisionPoint: node kinds that each add one
// to cyclomatic complexity (base complexity starts at 1, per the teacher's
// convention carried into FunctionComplexity.Cyclomatic).
var decisionPointTypes = map[ast.Type]bool{
	ast.TypeIf:     true,
	ast.TypeLoop:   true,
	ast.TypeSwitch: true,
	ast.TypeCase:   true,
	ast.TypeMatch:  true,
	ast.TypeCatch:  true,
}

// funcVisitResult is the raw counter state accumulated by walking one
// function's subtree, consumed by AnalyzeFunction to build the public
// FunctionComplexity/ComplexityBound result.
type funcVisitResult struct {
	cyclomatic         int
	cognitive          int
	nestingDepth       int
	maxLoopDepth       int
	selfRecursiveHits  int
	hasBinarySearch    bool
	hasSort            bool
	hasGrowthContainer bool
	functionName       string
}

// AnalyzeFunction walks the subtree rooted at fn within dag and computes
// its raw complexity counters. fn must be an ast.TypeFunction (or
// TypeMethod) node; functionName is used to detect self-recursive calls.
func AnalyzeFunction(dag *ast.AstDag, fn ast.NodeKey, functionName string) FunctionComplexity {
	result := &funcVisitResult{cyclomatic: 1, functionName: functionName}

	level := 0
	loopLevel := 0

	_ = dag.Walk(fn, func(key ast.NodeKey, n *ast.Node, depth int) {
		visitEnter(result, n, &level, &loopLevel)
	}, func(key ast.NodeKey, n *ast.Node, depth int) {
		visitExit(n, &level, &loopLevel)
	})

	if result.cyclomatic > MaxCyclomatic {
		result.cyclomatic = MaxCyclomatic
	}

	if result.cognitive > MaxCyclomatic {
		result.cognitive = MaxCyclomatic
	}

	fc := FunctionComplexity{
		FunctionName: functionName,
		Cyclomatic:   result.cyclomatic,
		Cognitive:    result.cognitive,
		NestingDepth: result.nestingDepth,
	}

	fc.TimeComplexity = classifyTime(result)
	fc.SpaceComplexity = classifySpace(result)
	fc.Confidence = fc.TimeComplexity.Confidence

	return fc
}

func visitEnter(result *funcVisitResult, n *ast.Node, level, loopLevel *int) {
	if isDecisionPoint(n) {
		result.cyclomatic++
		// Cognitive complexity weights a decision point by how deeply
		// nested it already is, matching the standard cognitive-complexity
		// "nesting increment" rule rather than flat counting.
		result.cognitive += 1 + *level
	}

	if n.HasAnyRole(ast.RoleCondition) && !isDecisionPoint(n) {
		result.cyclomatic++
		result.cognitive += 1 + *level
	}

	if n.Type == ast.TypeCall {
		trackCallSignals(result, n)
	}

	if isGrowthContainer(n) {
		result.hasGrowthContainer = true
	}

	if nestingStartTypes[n.Type] {
		*level++
		if *level > result.nestingDepth {
			result.nestingDepth = *level
		}
	}

	if n.Type == ast.TypeLoop {
		*loopLevel++
		if *loopLevel > result.maxLoopDepth {
			result.maxLoopDepth = *loopLevel
		}
	}
}

func visitExit(n *ast.Node, level, loopLevel *int) {
	if nestingStartTypes[n.Type] {
		*level--
	}

	if n.Type == ast.TypeLoop {
		*loopLevel--
	}
}

func isDecisionPoint(n *ast.Node) bool {
	return decisionPointTypes[n.Type]
}

func trackCallSignals(result *funcVisitResult, n *ast.Node) {
	name := strings.ToLower(n.Token)
	if name == "" {
		name = strings.ToLower(n.Props["callee"])
	}

	switch {
	case strings.Contains(name, "binary_search"):
		result.hasBinarySearch = true
	case strings.Contains(name, "sort"):
		result.hasSort = true
	}

	if result.functionName != "" && calleeMatchesFunction(name, result.functionName) {
		result.selfRecursiveHits++
	}
}

func calleeMatchesFunction(calleeLower, functionName string) bool {
	return calleeLower == strings.ToLower(functionName) || strings.HasSuffix(calleeLower, "."+strings.ToLower(functionName))
}

// growthContainerTokens are substrings that flag a local variable or type
// annotation as a growth-capable container (spec.md §4.4 "Space complexity
// detected by presence of growth-capable containers").
var growthContainerTokens = []string{"vec", "list", "map", "set", "array", "buffer", "queue", "stack"}

func isGrowthContainer(n *ast.Node) bool {
	if n.Type != ast.TypeVariable && n.Type != ast.TypeTypeAnnotation {
		return false
	}

	token := strings.ToLower(n.Token)
	for _, want := range growthContainerTokens {
		if strings.Contains(token, want) {
			return true
		}
	}

	return false
}
