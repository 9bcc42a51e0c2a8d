// Package kvstore implements the reactive, scoped key-value Store (C4): the
// mutation API, snapshots, transactions, observation streams, derived live
// expressions and per-scope validation at the heart of the engine.
package kvstore

import (
	"context"
	"sort"
	"sync"

	"github.com/MrtnvM/render-engine/internal/logging"
	"github.com/MrtnvM/render-engine/keypath"
	"github.com/MrtnvM/render-engine/storage"
	"github.com/MrtnvM/render-engine/validation"
	"github.com/MrtnvM/render-engine/value"
)

// Store is a reactive key-value container scoped to a single (scope,
// storage) pair. All operations run behind a single mutex, which serves as
// the store's serialization point (spec §5): reads, mutations, patch
// emission, validation and live-expression evaluation for a given store are
// never interleaved with each other.
type Store struct {
	mu sync.Mutex

	scope      value.Scope
	storageRef value.StorageRef
	backend    storage.Backend
	log        logging.Logger

	root value.Object

	ruleOpts validation.RuleOptions

	liveExprs map[string]*registeredExpr
	depOrder  []string // registration order, for deterministic re-eval fan-out

	pathSubs map[string][]*pathSubscription
	setSubs  []*setSubscription
	chgSubs  []*changeSubscription
}

// New loads initial state from backend and returns a ready Store.
func New(ctx context.Context, scope value.Scope, ref value.StorageRef, backend storage.Backend, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNoOpLogger()
	}
	data, err := backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	root := make(value.Object, len(data))
	for k, v := range data {
		root[k] = v
	}
	return &Store{
		scope:      scope,
		storageRef: ref,
		backend:    backend,
		log:        log,
		root:       root,
		liveExprs:  map[string]*registeredExpr{},
		pathSubs:   map[string][]*pathSubscription{},
	}, nil
}

// Get reads the StoreValue at path, or (nil, false) if absent.
func (s *Store) Get(path string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return keypath.Get(s.root, path)
}

// Exists reports whether path resolves to a present value.
func (s *Store) Exists(path string) bool {
	_, ok := s.Get(path)
	return ok
}

// Snapshot returns the full current state as an Object. The returned value
// is a shallow view; callers must not mutate it.
func (s *Store) Snapshot() value.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneObject(s.root)
}

// ReplaceAll overwrites the whole root and emits one coarse "merge" patch at
// "$root". Per-path subscribers are not fanned out for this coarse patch
// (spec §9 leaves this implementation-defined); the store-level Change
// stream always receives it.
func (s *Store) ReplaceAll(ctx context.Context, root value.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.root
	s.root = cloneObject(root)
	patch := value.Patch{Op: value.OpMerge, KeyPath: "$root", OldValue: old, NewValue: s.root}
	return s.commit(ctx, []value.Patch{patch}, "", false)
}

func cloneObject(o value.Object) value.Object {
	out := make(value.Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// ConfigureValidation installs the per-path rule set used by Set/Merge.
func (s *Store) ConfigureValidation(opts validation.RuleOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleOpts = opts
}

// ValidateWrite reports whether v would be accepted at path under the
// currently configured rules, without applying it.
func (s *Store) ValidateWrite(path string, v value.Value) (bool, string) {
	s.mu.Lock()
	rule, ok := s.ruleOpts.Schema[path]
	s.mu.Unlock()
	if !ok {
		return true, ""
	}
	res := validation.ValidateStoreValue(rule, v)
	if res.IsValid() {
		return true, ""
	}
	msgs := res.ClientSummary()
	if len(msgs) == 0 {
		return false, "validation failed"
	}
	return false, msgs[0]
}

// Set writes v at path, applying the configured validation rule if one is
// present for path. In strict mode an invalid write is dropped silently
// (logged) and no patch is emitted. In lenient mode an invalid write is
// coerced to the rule's kind, else substitutes the rule's default value,
// else is dropped. Exactly one "set" patch is emitted on success.
func (s *Store) Set(ctx context.Context, path string, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resolved, ok := s.applyRule(path, v)
	if !ok {
		s.log.Warn("kvstore: dropped invalid write at %s", path)
		return nil
	}
	old, _ := keypath.Get(s.root, path)
	if old == nil {
		old = value.Null{}
	}
	newRoot := keypath.Set(s.root, path, resolved)
	s.root = newRoot.(value.Object)
	patch := value.Patch{Op: value.OpSet, KeyPath: path, OldValue: old, NewValue: resolved}
	return s.commit(ctx, []value.Patch{patch}, "", false)
}

// applyRule validates/coerces v for path per the configured Rule, following
// spec §4.4's strict/lenient semantics. The bool result is false only when
// the write must be dropped entirely.
func (s *Store) applyRule(path string, v value.Value) (value.Value, bool) {
	rule, ok := s.ruleOpts.Schema[path]
	if !ok {
		return v, true
	}
	res := validation.ValidateStoreValue(rule, v)
	if res.IsValid() {
		return v, true
	}
	if s.ruleOpts.Mode == validation.ModeStrict {
		return nil, false
	}
	if coerced, ok := value.Coerce(v, rule.Kind.ValueKind()); ok {
		if validation.ValidateStoreValue(rule, coerced).IsValid() {
			return coerced, true
		}
	}
	if rule.DefaultValue != nil {
		return rule.DefaultValue, true
	}
	return nil, false
}

// Merge shallow-merges obj's keys into the current object value at path
// (overwriting on key conflicts). If the current value at path is not an
// object (including absent), the path is replaced wholesale with obj and a
// "set" patch is emitted instead of "merge" (spec §9 clarifies this
// matches the source's overwrite behavior for non-object scalars).
func (s *Store) Merge(ctx context.Context, path string, obj value.Value) error {
	newObj, ok := obj.(value.Object)
	if !ok {
		return &Error{Code: InvalidValueType, Path: path, Msg: "merge requires an object value"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, exists := keypath.Get(s.root, path)
	op := value.OpMerge
	var merged value.Value
	if exists {
		if curObj, isObj := old.(value.Object); isObj {
			m := make(value.Object, len(curObj)+len(newObj))
			for k, v := range curObj {
				m[k] = v
			}
			for k, v := range newObj {
				m[k] = v
			}
			merged = m
		} else {
			merged = newObj
			op = value.OpSet
		}
	} else {
		merged = newObj
		op = value.OpSet
	}
	if !exists {
		old = value.Null{}
	}
	resolved, ok := s.applyRule(path, merged)
	if !ok {
		s.log.Warn("kvstore: dropped invalid merge at %s", path)
		return nil
	}
	newRoot := keypath.Set(s.root, path, resolved)
	s.root = newRoot.(value.Object)
	patch := value.Patch{Op: op, KeyPath: path, OldValue: old, NewValue: resolved}
	return s.commit(ctx, []value.Patch{patch}, "", false)
}

// Remove deletes the value at path, emitting a "remove" patch even when
// path was already absent (spec §9 open question: the source emits in this
// case too, so this implementation matches it; subscribers simply observe
// oldValue == newValue == null for a no-op removal).
func (s *Store) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newRoot, old := keypath.Remove(s.root, path)
	s.root = newRoot.(value.Object)
	patch := value.Patch{Op: value.OpRemove, KeyPath: path, OldValue: old, NewValue: value.Null{}}
	return s.commit(ctx, []value.Patch{patch}, "", false)
}

// commit applies patches (already reflected in s.root by the caller),
// triggers live-expression re-evaluation, persists to the backend and
// notifies subscribers, all while s.mu is held. txnID is empty for a
// non-transactional Change.
func (s *Store) commit(ctx context.Context, patches []value.Patch, txnID string, fromTxn bool) error {
	all := s.evaluateLiveExpressions(patches)
	change := value.Change{Patches: all, TransactionID: txnID, Scope: s.scope}

	if pusher, ok := s.backend.(storage.ChangePusher); ok {
		if err := pusher.PushChange(ctx, change); err != nil {
			s.log.Warn("kvstore: backend push failed: %v", err)
		}
	} else {
		flat := map[string]value.Value(s.root)
		if err := s.backend.Save(ctx, flat); err != nil {
			s.log.Warn("kvstore: backend save failed: %v", err)
		}
	}

	s.notify(change)
	return nil
}

// notify fans a committed Change out to per-path, per-set and store-level
// subscribers. Called with s.mu held.
func (s *Store) notify(change value.Change) {
	touched := map[string]bool{}
	for _, p := range change.Patches {
		if p.KeyPath == "$root" {
			continue
		}
		touched[p.KeyPath] = true
	}

	for _, path := range sortedTouched(touched) {
		v, _ := keypath.Get(s.root, path)
		for _, sub := range s.pathSubs[path] {
			sub.push(v)
		}
	}

	for _, sub := range s.setSubs {
		if sub.matchesAny(touched) || containsRootPatch(change.Patches) {
			sub.push(s.snapshotForPaths(sub.paths))
		}
	}

	for _, sub := range s.chgSubs {
		sub.push(change)
	}
}

func containsRootPatch(patches []value.Patch) bool {
	for _, p := range patches {
		if p.KeyPath == "$root" {
			return true
		}
	}
	return false
}

func (s *Store) snapshotForPaths(paths []string) value.Object {
	out := make(value.Object, len(paths))
	for _, p := range paths {
		if v, ok := keypath.Get(s.root, p); ok {
			out[p] = v
		} else {
			out[p] = value.Null{}
		}
	}
	return out
}

// sortedTouched returns touched's keys in a deterministic order so per-path
// subscriber fan-out in notify does not depend on Go's randomized map
// iteration order.
func sortedTouched(touched map[string]bool) []string {
	out := make([]string, 0, len(touched))
	for k := range touched {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
