package kvstore

import (
	"context"
	"fmt"

	"github.com/MrtnvM/render-engine/keypath"
	"github.com/MrtnvM/render-engine/value"
)

// Txn is a buffered sequence of writes applied atomically: either every
// operation in the block succeeds and is committed as a single Change
// sharing one transaction id, or the first failure rolls back every write
// made so far within the block and the error is returned (spec §4.4
// transaction semantics).
type Txn struct {
	store    *Store
	base     value.Object // root as it stood before the transaction began
	root     value.Object // working root, mutated in place as ops are buffered
	patches  []value.Patch
	failed   error
}

// Transaction runs fn against a Txn buffering Set/Merge/Remove calls against
// a private working copy of the root. If fn returns an error (or a buffered
// operation itself fails), no change reaches the store: the working copy is
// discarded and that error is returned. Otherwise every buffered patch is
// applied to the store and committed as one Change carrying a fresh
// transaction id.
func (s *Store) Transaction(ctx context.Context, fn func(txn *Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn := &Txn{store: s, base: s.root, root: cloneObject(s.root)}
	if err := fn(txn); err != nil {
		return err
	}
	if txn.failed != nil {
		return txn.failed
	}
	if len(txn.patches) == 0 {
		return nil
	}

	s.root = txn.root
	return s.commit(ctx, txn.patches, value.NewTransactionID(), true)
}

// Get reads path against the transaction's in-progress working copy, so a
// later Get within the same block observes an earlier Set/Merge/Remove in
// that block (spec §4.4: intermediate values are visible within the txn).
func (t *Txn) Get(path string) (value.Value, bool) {
	return keypath.Get(t.root, path)
}

// Set buffers a write at path against the transaction's working copy.
func (t *Txn) Set(path string, v value.Value) error {
	if t.failed != nil {
		return t.failed
	}
	resolved, ok := t.store.applyRule(path, v)
	if !ok {
		t.failed = &Error{Code: InvalidValueType, Path: path, Msg: "transaction write rejected by validation rule"}
		return t.failed
	}
	old, _ := keypath.Get(t.root, path)
	if old == nil {
		old = value.Null{}
	}
	t.root = keypath.Set(t.root, path, resolved).(value.Object)
	t.patches = append(t.patches, value.Patch{Op: value.OpSet, KeyPath: path, OldValue: old, NewValue: resolved})
	return nil
}

// Merge buffers a shallow object merge at path, following the same
// non-object-overwrite rule as Store.Merge.
func (t *Txn) Merge(path string, obj value.Value) error {
	if t.failed != nil {
		return t.failed
	}
	newObj, ok := obj.(value.Object)
	if !ok {
		t.failed = &Error{Code: InvalidValueType, Path: path, Msg: "merge requires an object value"}
		return t.failed
	}
	old, exists := keypath.Get(t.root, path)
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
	resolved, ok := t.store.applyRule(path, merged)
	if !ok {
		t.failed = &Error{Code: InvalidValueType, Path: path, Msg: "transaction merge rejected by validation rule"}
		return t.failed
	}
	t.root = keypath.Set(t.root, path, resolved).(value.Object)
	t.patches = append(t.patches, value.Patch{Op: op, KeyPath: path, OldValue: old, NewValue: resolved})
	return nil
}

// Remove buffers a delete at path.
func (t *Txn) Remove(path string) error {
	if t.failed != nil {
		return t.failed
	}
	newRoot, old := keypath.Remove(t.root, path)
	t.root = newRoot.(value.Object)
	t.patches = append(t.patches, value.Patch{Op: value.OpRemove, KeyPath: path, OldValue: old, NewValue: value.Null{}})
	return nil
}

// Fail aborts the transaction from within fn with a caller-supplied reason,
// causing Transaction to discard all buffered writes and return this error.
func (t *Txn) Fail(format string, args ...interface{}) error {
	t.failed = fmt.Errorf(format, args...)
	return t.failed
}
