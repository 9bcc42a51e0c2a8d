package scenario

import (
	"testing"

	"github.com/MrtnvM/render-engine/action"
)

func TestParseFullDocument(t *testing.T) {
	raw := []byte(`{
		"version": "1.0.0",
		"stores": [
			{"scope": "app", "storage": "memory", "initialValue": {"count": {"type":"integer","value":0}}},
			{"scope": "scenario", "storage": "session"}
		],
		"actions": [
			{
				"id": "incr",
				"kind": "store.set",
				"storeRef": "app",
				"keyPath": "count",
				"value": {"kind": "literal", "type": "integer", "value": 1}
			},
			{
				"id": "txn",
				"kind": "store.transaction",
				"storeRef": "app",
				"actions": [
					{"id": "t1", "kind": "store.set", "storeRef": "app", "keyPath": "a", "value": {"kind":"literal","type":"integer","value":1}}
				]
			},
			{
				"id": "seq",
				"kind": "sequence",
				"strategy": "parallel",
				"stopOnError": true,
				"actions": [
					{"id": "s1", "kind": "ui.showToast", "message": {"kind":"literal","type":"string","value":"hi"}}
				]
			},
			{
				"id": "cond",
				"kind": "conditional",
				"condition": {
					"kind": "equals",
					"left": {"kind": "literal", "type": "integer", "value": 1},
					"right": {"kind": "literal", "type": "integer", "value": 1}
				},
				"then": [
					{"id": "t", "kind": "navigation.push", "screenId": "home"}
				],
				"else": []
			},
			{
				"id": "req",
				"kind": "api.request",
				"endpoint": "https://example.test/api",
				"method": "GET",
				"timeoutMs": 5000,
				"onSuccess": [
					{"id": "ok", "kind": "store.set", "storeRef": "app", "keyPath": "loaded", "value": {"kind":"literal","type":"bool","value":true}}
				],
				"onError": []
			}
		]
	}`)

	doc, err := Parse(raw, "scenario-1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Version != "1.0.0" {
		t.Fatalf("unexpected version %q", doc.Version)
	}
	if len(doc.Stores) != 2 {
		t.Fatalf("expected 2 store descriptors, got %d", len(doc.Stores))
	}
	if doc.Stores[1].Scope.String() == "" {
		t.Fatalf("expected scenario-scoped descriptor to carry a non-empty scope")
	}
	if len(doc.Actions) != 5 {
		t.Fatalf("expected 5 top-level actions, got %d", len(doc.Actions))
	}

	txn := doc.Actions[1]
	if txn.Kind != action.KindStoreTransaction || len(txn.Actions) != 1 {
		t.Fatalf("expected decoded transaction with 1 nested action, got %+v", txn)
	}

	seq := doc.Actions[2]
	if seq.Strategy != action.StrategyParallel || !seq.StopOnError {
		t.Fatalf("expected parallel/stopOnError sequence, got %+v", seq)
	}

	cond := doc.Actions[3]
	if cond.Condition == nil || len(cond.Then) != 1 || len(cond.Else) != 0 {
		t.Fatalf("expected decoded conditional, got %+v", cond)
	}

	req := doc.Actions[4]
	if req.Endpoint != "https://example.test/api" || len(req.OnSuccess) != 1 {
		t.Fatalf("expected decoded api.request, got %+v", req)
	}
}

func TestParseUnknownActionKindProducesDecodeError(t *testing.T) {
	raw := []byte(`{"version":"1.0.0","actions":[{"id":"x","kind":"bogus.kind"}]}`)
	_, err := Parse(raw, "s")
	if err == nil {
		t.Fatalf("expected decode error for unknown action kind")
	}
	de, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
	if de.Path != "actions[0]" {
		t.Fatalf("expected offending position actions[0], got %q", de.Path)
	}
	if de.Kind != "bogus.kind" {
		t.Fatalf("expected kind %q recorded, got %q", "bogus.kind", de.Kind)
	}
}

func TestParseUnknownActionKindNestedPosition(t *testing.T) {
	raw := []byte(`{
		"version": "1.0.0",
		"actions": [
			{"id": "seq", "kind": "sequence", "actions": [
				{"id": "ok", "kind": "navigation.pop"},
				{"id": "bad", "kind": "nonsense"}
			]}
		]
	}`)
	_, err := Parse(raw, "s")
	de, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
	if de.Path != "actions[0].actions[1]" {
		t.Fatalf("expected offending position actions[0].actions[1], got %q", de.Path)
	}
}

func TestParseUnknownScopeOrStorage(t *testing.T) {
	if _, err := Parse([]byte(`{"version":"1.0.0","stores":[{"scope":"bogus","storage":"memory"}]}`), "s"); err == nil {
		t.Fatalf("expected error for unknown scope")
	}
	if _, err := Parse([]byte(`{"version":"1.0.0","stores":[{"scope":"app","storage":"bogus"}]}`), "s"); err == nil {
		t.Fatalf("expected error for unknown storage")
	}
}
