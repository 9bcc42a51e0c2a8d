// Package scenario implements the scenario parser (C10): decoding a
// scenario JSON document into the typed action tree, store descriptors and
// initial values the rest of the engine operates on (spec §4.11, §6).
package scenario

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MrtnvM/render-engine/action"
	"github.com/MrtnvM/render-engine/value"
)

// DecodeError is returned for a malformed action, value descriptor or
// condition descriptor, carrying the document path at which decoding
// failed (e.g. "actions[2].then[0]") (spec §4.11: "unknown action kinds
// produce a typed decode error at the offending position").
type DecodeError struct {
	Path string
	Kind string
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("scenario: %s at %s: kind %q: %s", e.Msg, e.Path, e.Kind, e.Msg)
	}
	return fmt.Sprintf("scenario: %s at %s", e.Msg, e.Path)
}

func decodeErr(path, kind, msg string) *DecodeError {
	return &DecodeError{Path: path, Kind: kind, Msg: msg}
}

// StoreDescriptor is one entry of the scenario document's "stores" array.
type StoreDescriptor struct {
	Scope        value.Scope
	Storage      value.StorageRef
	InitialValue value.Object
}

// Document is the decoded scenario: version, store descriptors and the
// action tree. Components is kept opaque (spec §1: out of core).
type Document struct {
	Version    string
	Stores     []StoreDescriptor
	Actions    []action.Action
	Components json.RawMessage
}

type wireDocument struct {
	Version    string               `json:"version"`
	Stores     []wireStoreDescriptor `json:"stores"`
	Actions    []json.RawMessage    `json:"actions"`
	Components json.RawMessage     `json:"components"`
}

type wireStoreDescriptor struct {
	Scope        string                     `json:"scope"`
	Storage      string                     `json:"storage"`
	Suite        string                     `json:"suite"`
	FileURL      string                     `json:"fileUrl"`
	Namespace    string                     `json:"namespace"`
	InitialValue map[string]json.RawMessage `json:"initialValue"`
}

// Parse decodes raw into a Document. scenarioID binds any "scenario"-scoped
// store descriptor to the running scenario's id (the wire form's "scope"
// field carries only the tag, per spec §6's example payload).
func Parse(raw []byte, scenarioID string) (*Document, error) {
	var wd wireDocument
	if err := json.Unmarshal(raw, &wd); err != nil {
		return nil, decodeErr("$", "", fmt.Sprintf("malformed scenario document: %v", err))
	}

	doc := &Document{Version: wd.Version, Components: wd.Components}

	for i, ws := range wd.Stores {
		sd, err := decodeStoreDescriptor(ws, scenarioID)
		if err != nil {
			return nil, decodeErr(fmt.Sprintf("stores[%d]", i), "", err.Error())
		}
		doc.Stores = append(doc.Stores, sd)
	}

	for i, raw := range wd.Actions {
		a, err := decodeAction(raw, fmt.Sprintf("actions[%d]", i))
		if err != nil {
			return nil, err
		}
		doc.Actions = append(doc.Actions, a)
	}

	return doc, nil
}

// ParseYAML decodes a YAML-authored scenario document by converting it to
// the wire JSON form and delegating to Parse, so authors can hand-write
// scenarios without quoting every key.
func ParseYAML(raw []byte, scenarioID string) (*Document, error) {
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, decodeErr("$", "", fmt.Sprintf("malformed yaml scenario document: %v", err))
	}
	asJSON, err := json.Marshal(convertYAMLValue(generic))
	if err != nil {
		return nil, decodeErr("$", "", fmt.Sprintf("yaml-to-json conversion failed: %v", err))
	}
	return Parse(asJSON, scenarioID)
}

// convertYAMLValue recursively rewrites map[string]interface{} keys decoded
// by yaml.v3 (which may produce map[string]interface{} already, but nested
// sequences/maps still need walking) into a form encoding/json accepts.
func convertYAMLValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = convertYAMLValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = convertYAMLValue(val)
		}
		return out
	default:
		return v
	}
}

func decodeStoreDescriptor(ws wireStoreDescriptor, scenarioID string) (StoreDescriptor, error) {
	var scope value.Scope
	switch ws.Scope {
	case "app":
		scope = value.AppScope()
	case "scenario":
		scope = value.ScenarioScope(scenarioID)
	default:
		return StoreDescriptor{}, fmt.Errorf("unknown scope %q", ws.Scope)
	}

	var ref value.StorageRef
	switch ws.Storage {
	case "memory":
		ref = value.StorageRef{Kind: value.StorageMemory}
	case "userPrefs":
		ref = value.StorageRef{Kind: value.StorageUserPrefs, Suite: ws.Suite}
	case "file":
		ref = value.StorageRef{Kind: value.StorageFile, FileURL: ws.FileURL}
	case "session":
		ref = value.StorageRef{Kind: value.StorageSession}
	case "backend":
		ref = value.StorageRef{Kind: value.StorageBackend, Namespace: ws.Namespace}
	default:
		return StoreDescriptor{}, fmt.Errorf("unknown storage %q", ws.Storage)
	}

	initial := make(value.Object, len(ws.InitialValue))
	for k, raw := range ws.InitialValue {
		v, err := value.DecodeTagged(raw)
		if err != nil {
			return StoreDescriptor{}, fmt.Errorf("initialValue[%q]: %w", k, err)
		}
		initial[k] = v
	}

	return StoreDescriptor{Scope: scope, Storage: ref, InitialValue: initial}, nil
}
