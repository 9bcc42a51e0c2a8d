package kvstore

import (
	"context"

	"github.com/MrtnvM/render-engine/keypath"
	"github.com/MrtnvM/render-engine/value"
)

// Policy controls whether a LiveExpression writes its result even when it
// is unchanged from the current value at OutputKeyPath.
type Policy int

const (
	WriteIfChanged Policy = iota
	AlwaysWrite
)

// GetFunc reads the store's current value at path during a live
// expression's compute callback.
type GetFunc func(path string) value.Value

// LiveExpression is a declarative derivation that re-computes and writes
// OutputKeyPath whenever a path in DependsOn changes (spec §3/§4.4).
type LiveExpression struct {
	ID            string
	OutputKeyPath string
	DependsOn     []string
	Compute       func(get GetFunc) value.Value
	Policy        Policy
}

type registeredExpr struct {
	expr LiveExpression
	deps []keypath.CompiledDependency
}

// RegisterLiveExpression registers expr, evaluating it once immediately and
// writing its result per Policy. Registration that would close a dependency
// cycle (expr depending, directly or transitively, on its own
// OutputKeyPath) is rejected with a CycleDetected error and has no effect.
func (s *Store) RegisterLiveExpression(ctx context.Context, expr LiveExpression) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wouldCycle(expr) {
		return cycleDetectedError(expr.ID)
	}

	compiled := make([]keypath.CompiledDependency, len(expr.DependsOn))
	for i, d := range expr.DependsOn {
		compiled[i] = keypath.CompileDependency(d)
	}
	re := &registeredExpr{expr: expr, deps: compiled}
	if _, existed := s.liveExprs[expr.ID]; !existed {
		s.depOrder = append(s.depOrder, expr.ID)
	}
	s.liveExprs[expr.ID] = re

	patch, ok := s.evalOne(re)
	if !ok {
		return nil
	}
	return s.commit(ctx, []value.Patch{patch}, "", false)
}

// UnregisterLiveExpression removes expr.ID; its weak reference to the store
// is simply dropped, per spec §9 ("arena+index... live expressions
// reference the store weakly").
func (s *Store) UnregisterLiveExpression(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.liveExprs, id)
	for i, d := range s.depOrder {
		if d == id {
			s.depOrder = append(s.depOrder[:i], s.depOrder[i+1:]...)
			break
		}
	}
}

// wouldCycle performs the DFS required before accepting a new dependency
// edge (spec §9): does candidate depend, directly or transitively through
// other registered expressions, on its own OutputKeyPath?
func (s *Store) wouldCycle(candidate LiveExpression) bool {
	for _, dep := range candidate.DependsOn {
		if keypath.CompileDependency(dep).Matches(candidate.OutputKeyPath) {
			return true
		}
	}

	visited := map[string]bool{}
	var target string
	var dfs func(outputPath string) bool
	dfs = func(outputPath string) bool {
		if outputPath == target {
			return true
		}
		if visited[outputPath] {
			return false
		}
		visited[outputPath] = true
		for id, re := range s.liveExprs {
			if id == candidate.ID {
				continue
			}
			for _, dep := range re.deps {
				if dep.Matches(outputPath) {
					if dfs(re.expr.OutputKeyPath) {
						return true
					}
				}
			}
		}
		return false
	}

	for _, dep := range candidate.DependsOn {
		for id, re := range s.liveExprs {
			if id == candidate.ID {
				continue
			}
			if keypath.CompileDependency(dep).Matches(re.expr.OutputKeyPath) {
				target, visited = re.expr.OutputKeyPath, map[string]bool{}
				if dfs(candidate.OutputKeyPath) {
					return true
				}
			}
		}
	}
	return false
}

// evalOne computes re's current value and, if Policy requires a write,
// applies it directly to s.root (caller holds s.mu). ok is false when
// WriteIfChanged suppressed an unchanged result.
func (s *Store) evalOne(re *registeredExpr) (value.Patch, bool) {
	get := func(path string) value.Value {
		v, ok := keypath.Get(s.root, path)
		if !ok {
			return value.Null{}
		}
		return v
	}
	newVal := re.expr.Compute(get)
	if newVal == nil {
		newVal = value.Null{}
	}
	old, ok := keypath.Get(s.root, re.expr.OutputKeyPath)
	if !ok {
		old = value.Null{}
	}
	if re.expr.Policy == WriteIfChanged && value.DeepEqual(old, newVal) {
		return value.Patch{}, false
	}
	s.root = keypath.Set(s.root, re.expr.OutputKeyPath, newVal).(value.Object)
	return value.Patch{Op: value.OpSet, KeyPath: re.expr.OutputKeyPath, OldValue: old, NewValue: newVal}, true
}

// evaluateLiveExpressions re-evaluates every expression whose DependsOn
// matches a path touched by initial, folding each resulting write back into
// the worklist so downstream expressions fire within the same logical
// cycle (spec §4.4 step 3). Acyclicity (enforced at registration) bounds
// this to a finite number of rounds; maxIterations is a defensive backstop.
func (s *Store) evaluateLiveExpressions(initial []value.Patch) []value.Patch {
	all := append([]value.Patch(nil), initial...)
	queue := append([]value.Patch(nil), initial...)
	maxIterations := (len(s.liveExprs) + 1) * 4
	iterations := 0
	for len(queue) > 0 && iterations < maxIterations {
		iterations++
		p := queue[0]
		queue = queue[1:]
		if p.KeyPath == "$root" {
			continue
		}
		for _, id := range s.depOrder {
			re := s.liveExprs[id]
			if re == nil {
				continue
			}
			triggered := false
			for _, dep := range re.deps {
				if dep.Matches(p.KeyPath) {
					triggered = true
					break
				}
			}
			if !triggered {
				continue
			}
			patch, ok := s.evalOne(re)
			if !ok {
				continue
			}
			all = append(all, patch)
			queue = append(queue, patch)
		}
	}
	return all
}
