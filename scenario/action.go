package scenario

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrtnvM/render-engine/action"
	"github.com/MrtnvM/render-engine/resolver"
)

// wireAction is the union of every action variant's wire fields (spec §6).
type wireAction struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`

	StoreRef string                     `json:"storeRef"`
	KeyPath  string                     `json:"keyPath"`
	Value    json.RawMessage            `json:"value"`
	Actions  []json.RawMessage          `json:"actions"`

	ScreenID string                     `json:"screenId"`
	Params   map[string]json.RawMessage `json:"params"`

	Message json.RawMessage `json:"message"`
	Title   json.RawMessage `json:"title"`
	Buttons []wireButton    `json:"buttons"`

	Payload map[string]json.RawMessage `json:"payload"`

	Endpoint        string                     `json:"endpoint"`
	Method          string                     `json:"method"`
	Headers         map[string]json.RawMessage `json:"headers"`
	Body            json.RawMessage            `json:"body"`
	OnSuccess       []json.RawMessage          `json:"onSuccess"`
	OnError         []json.RawMessage          `json:"onError"`
	ResponseMapping *wireResponseMapping       `json:"responseMapping"`
	TimeoutMs       int64                      `json:"timeoutMs"`

	Strategy    string `json:"strategy"`
	StopOnError bool   `json:"stopOnError"`

	Condition json.RawMessage   `json:"condition"`
	Then      []json.RawMessage `json:"then"`
	Else      []json.RawMessage `json:"else"`
}

type wireButton struct {
	Text   json.RawMessage `json:"text"`
	Action json.RawMessage `json:"action"`
}

type wireResponseMapping struct {
	StoreRef string `json:"storeRef"`
	KeyPath  string `json:"keyPath"`
}

func decodeAction(raw json.RawMessage, path string) (action.Action, error) {
	var wa wireAction
	if err := json.Unmarshal(raw, &wa); err != nil {
		return action.Action{}, decodeErr(path, "", fmt.Sprintf("malformed action: %v", err))
	}

	a := action.Action{ID: wa.ID, Kind: action.Kind(wa.Kind)}

	switch a.Kind {
	case action.KindStoreSet, action.KindStoreMerge:
		a.StoreRef = wa.StoreRef
		a.KeyPath = wa.KeyPath
		vd, err := decodeValueDescriptor(wa.Value, path+".value")
		if err != nil {
			return action.Action{}, err
		}
		a.Value = &vd

	case action.KindStoreRemove:
		a.StoreRef = wa.StoreRef
		a.KeyPath = wa.KeyPath

	case action.KindStoreTransaction:
		a.StoreRef = wa.StoreRef
		nested, err := decodeActionList(wa.Actions, path+".actions")
		if err != nil {
			return action.Action{}, err
		}
		a.Actions = nested

	case action.KindNavigationPush, action.KindNavigationPop, action.KindNavigationReplace,
		action.KindNavigationModal, action.KindNavigationDismissModal, action.KindNavigationPopTo,
		action.KindNavigationReset:
		a.ScreenID = wa.ScreenID
		params, err := decodeDescriptorMap(wa.Params, path+".params")
		if err != nil {
			return action.Action{}, err
		}
		a.Params = params

	case action.KindUiShowToast, action.KindUiShowLoading, action.KindUiHideLoading, action.KindUiDismissSheet:
		if err := attachMessageTitle(&a, wa, path); err != nil {
			return action.Action{}, err
		}

	case action.KindUiShowAlert, action.KindUiShowSheet:
		if err := attachMessageTitle(&a, wa, path); err != nil {
			return action.Action{}, err
		}
		buttons := make([]action.Button, len(wa.Buttons))
		for i, wb := range wa.Buttons {
			text, err := decodeValueDescriptor(wb.Text, fmt.Sprintf("%s.buttons[%d].text", path, i))
			if err != nil {
				return action.Action{}, err
			}
			btnAction, err := decodeAction(wb.Action, fmt.Sprintf("%s.buttons[%d].action", path, i))
			if err != nil {
				return action.Action{}, err
			}
			buttons[i] = action.Button{Text: text, Action: btnAction}
		}
		a.Buttons = buttons

	case action.KindSystemShare, action.KindSystemOpenURL, action.KindSystemHaptic,
		action.KindSystemCopyToClipboard, action.KindSystemRequestPermission:
		payload, err := decodeDescriptorMap(wa.Payload, path+".payload")
		if err != nil {
			return action.Action{}, err
		}
		a.SystemPayload = payload

	case action.KindAPIRequest:
		a.Endpoint = wa.Endpoint
		a.Method = wa.Method
		a.Timeout = time.Duration(wa.TimeoutMs) * time.Millisecond
		headers, err := decodeDescriptorMap(wa.Headers, path+".headers")
		if err != nil {
			return action.Action{}, err
		}
		a.Headers = headers
		if len(wa.Body) > 0 {
			bd, err := decodeValueDescriptor(wa.Body, path+".body")
			if err != nil {
				return action.Action{}, err
			}
			a.Body = &bd
		}
		onSuccess, err := decodeActionList(wa.OnSuccess, path+".onSuccess")
		if err != nil {
			return action.Action{}, err
		}
		a.OnSuccess = onSuccess
		onError, err := decodeActionList(wa.OnError, path+".onError")
		if err != nil {
			return action.Action{}, err
		}
		a.OnError = onError
		if wa.ResponseMapping != nil {
			a.ResponseMapping = &action.ResponseMapping{StoreRef: wa.ResponseMapping.StoreRef, KeyPath: wa.ResponseMapping.KeyPath}
		}

	case action.KindSequence:
		nested, err := decodeActionList(wa.Actions, path+".actions")
		if err != nil {
			return action.Action{}, err
		}
		a.Actions = nested
		a.StopOnError = wa.StopOnError
		switch wa.Strategy {
		case "", "serial":
			a.Strategy = action.StrategySerial
		case "parallel":
			a.Strategy = action.StrategyParallel
		default:
			return action.Action{}, decodeErr(path, wa.Kind, fmt.Sprintf("unknown sequence strategy %q", wa.Strategy))
		}

	case action.KindConditional:
		cond, err := decodeConditionDescriptor(wa.Condition, path+".condition")
		if err != nil {
			return action.Action{}, err
		}
		a.Condition = &cond
		then, err := decodeActionList(wa.Then, path+".then")
		if err != nil {
			return action.Action{}, err
		}
		a.Then = then
		els, err := decodeActionList(wa.Else, path+".else")
		if err != nil {
			return action.Action{}, err
		}
		a.Else = els

	default:
		return action.Action{}, decodeErr(path, wa.Kind, fmt.Sprintf("unknown action kind %q", wa.Kind))
	}

	return a, nil
}

func attachMessageTitle(a *action.Action, wa wireAction, path string) error {
	if len(wa.Message) > 0 {
		vd, err := decodeValueDescriptor(wa.Message, path+".message")
		if err != nil {
			return err
		}
		a.Message = &vd
	}
	if len(wa.Title) > 0 {
		vd, err := decodeValueDescriptor(wa.Title, path+".title")
		if err != nil {
			return err
		}
		a.Title = &vd
	}
	return nil
}

func decodeActionList(raws []json.RawMessage, path string) ([]action.Action, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]action.Action, len(raws))
	for i, raw := range raws {
		a, err := decodeAction(raw, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func decodeDescriptorMap(raws map[string]json.RawMessage, path string) (map[string]resolver.ValueDescriptor, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make(map[string]resolver.ValueDescriptor, len(raws))
	for k, raw := range raws {
		vd, err := decodeValueDescriptor(raw, fmt.Sprintf("%s[%q]", path, k))
		if err != nil {
			return nil, err
		}
		out[k] = vd
	}
	return out, nil
}

// wireValueDescriptor is the union of every ValueDescriptor variant's wire
// fields (spec §3, §6).
type wireValueDescriptor struct {
	Kind string `json:"kind"`

	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	StoreRef     string               `json:"storeRef"`
	KeyPath      string               `json:"keyPath"`
	DefaultValue *wireValueDescriptor `json:"defaultValue"`

	Op       string                `json:"op"`
	Operands []wireValueDescriptor `json:"operands"`
	Template string                `json:"template"`

	Path string `json:"path"`
}

func decodeValueDescriptor(raw json.RawMessage, path string) (resolver.ValueDescriptor, error) {
	if len(raw) == 0 {
		return resolver.ValueDescriptor{}, decodeErr(path, "", "missing value descriptor")
	}
	var wv wireValueDescriptor
	if err := json.Unmarshal(raw, &wv); err != nil {
		return resolver.ValueDescriptor{}, decodeErr(path, "", fmt.Sprintf("malformed value descriptor: %v", err))
	}

	switch wv.Kind {
	case "literal":
		var decoded interface{}
		if len(wv.Value) > 0 {
			if err := json.Unmarshal(wv.Value, &decoded); err != nil {
				return resolver.ValueDescriptor{}, decodeErr(path, wv.Kind, fmt.Sprintf("malformed literal value: %v", err))
			}
		}
		return resolver.ValueDescriptor{Kind: resolver.Literal, LiteralType: wv.Type, LiteralValue: decoded}, nil

	case "storeValue":
		vd := resolver.ValueDescriptor{Kind: resolver.StoreValue, StoreRef: wv.StoreRef, KeyPath: wv.KeyPath}
		if wv.DefaultValue != nil {
			dv, err := decodeValueDescriptorFromStruct(*wv.DefaultValue, path+".defaultValue")
			if err != nil {
				return resolver.ValueDescriptor{}, err
			}
			vd.DefaultValue = &dv
		}
		return vd, nil

	case "computed":
		op, isTemplate, err := decodeComputedOp(wv.Op, path)
		if err != nil {
			return resolver.ValueDescriptor{}, err
		}
		operands := make([]resolver.ValueDescriptor, len(wv.Operands))
		for i, wo := range wv.Operands {
			od, err := decodeValueDescriptorFromStruct(wo, fmt.Sprintf("%s.operands[%d]", path, i))
			if err != nil {
				return resolver.ValueDescriptor{}, err
			}
			operands[i] = od
		}
		if isTemplate {
			return resolver.ValueDescriptor{Kind: resolver.Computed, Op: op, Operands: operands, Template: wv.Template}, nil
		}
		if len(operands) < 2 {
			return resolver.ValueDescriptor{}, decodeErr(path, wv.Kind, fmt.Sprintf("computed op %q requires at least 2 operands", wv.Op))
		}
		return resolver.ValueDescriptor{Kind: resolver.Computed, Op: op, Operands: operands}, nil

	case "eventData":
		return resolver.ValueDescriptor{Kind: resolver.EventData, Path: wv.Path}, nil

	default:
		return resolver.ValueDescriptor{}, decodeErr(path, wv.Kind, fmt.Sprintf("unknown value descriptor kind %q", wv.Kind))
	}
}

// decodeValueDescriptorFromStruct re-encodes an already-decoded nested
// wireValueDescriptor so it can go through the same path as a top-level
// raw-JSON descriptor (used for defaultValue/operands, which json already
// unmarshaled one level deep).
func decodeValueDescriptorFromStruct(wv wireValueDescriptor, path string) (resolver.ValueDescriptor, error) {
	raw, err := json.Marshal(wv)
	if err != nil {
		return resolver.ValueDescriptor{}, decodeErr(path, wv.Kind, fmt.Sprintf("re-encode: %v", err))
	}
	return decodeValueDescriptor(raw, path)
}

func decodeComputedOp(op, path string) (resolver.ComputedOp, bool, error) {
	switch op {
	case "add":
		return resolver.OpAdd, false, nil
	case "subtract":
		return resolver.OpSubtract, false, nil
	case "multiply":
		return resolver.OpMultiply, false, nil
	case "divide":
		return resolver.OpDivide, false, nil
	case "modulo":
		return resolver.OpModulo, false, nil
	case "template":
		return resolver.OpTemplate, true, nil
	default:
		return 0, false, decodeErr(path, "computed", fmt.Sprintf("unknown computed op %q", op))
	}
}

// wireConditionDescriptor is the union of every ConditionDescriptor
// variant's wire fields (spec §3, §4.9).
type wireConditionDescriptor struct {
	Kind       string                    `json:"kind"`
	Left       json.RawMessage           `json:"left"`
	Right      json.RawMessage           `json:"right"`
	Conditions []wireConditionDescriptor `json:"conditions"`
}

func decodeConditionDescriptor(raw json.RawMessage, path string) (resolver.ConditionDescriptor, error) {
	if len(raw) == 0 {
		return resolver.ConditionDescriptor{}, decodeErr(path, "", "missing condition descriptor")
	}
	var wc wireConditionDescriptor
	if err := json.Unmarshal(raw, &wc); err != nil {
		return resolver.ConditionDescriptor{}, decodeErr(path, "", fmt.Sprintf("malformed condition descriptor: %v", err))
	}

	kind, isLogical, err := decodeConditionKind(wc.Kind, path)
	if err != nil {
		return resolver.ConditionDescriptor{}, err
	}

	if isLogical {
		conds := make([]resolver.ConditionDescriptor, len(wc.Conditions))
		for i, wcc := range wc.Conditions {
			encoded, err := json.Marshal(wcc)
			if err != nil {
				return resolver.ConditionDescriptor{}, decodeErr(path, wc.Kind, fmt.Sprintf("re-encode: %v", err))
			}
			cd, err := decodeConditionDescriptor(encoded, fmt.Sprintf("%s.conditions[%d]", path, i))
			if err != nil {
				return resolver.ConditionDescriptor{}, err
			}
			conds[i] = cd
		}
		if kind == resolver.CondNot && len(conds) == 0 {
			return resolver.ConditionDescriptor{}, decodeErr(path, wc.Kind, "not requires one nested condition")
		}
		return resolver.ConditionDescriptor{Kind: kind, Conditions: conds}, nil
	}

	left, err := decodeValueDescriptor(wc.Left, path+".left")
	if err != nil {
		return resolver.ConditionDescriptor{}, err
	}
	right, err := decodeValueDescriptor(wc.Right, path+".right")
	if err != nil {
		return resolver.ConditionDescriptor{}, err
	}
	return resolver.ConditionDescriptor{Kind: kind, Left: &left, Right: &right}, nil
}

func decodeConditionKind(kind, path string) (resolver.ConditionKind, bool, error) {
	switch kind {
	case "equals":
		return resolver.CondEquals, false, nil
	case "notEquals":
		return resolver.CondNotEquals, false, nil
	case "greaterThan":
		return resolver.CondGreaterThan, false, nil
	case "greaterThanOrEqual":
		return resolver.CondGreaterThanOrEqual, false, nil
	case "lessThan":
		return resolver.CondLessThan, false, nil
	case "lessThanOrEqual":
		return resolver.CondLessThanOrEqual, false, nil
	case "and":
		return resolver.CondAnd, true, nil
	case "or":
		return resolver.CondOr, true, nil
	case "not":
		return resolver.CondNot, true, nil
	default:
		return 0, false, decodeErr(path, kind, fmt.Sprintf("unknown condition kind %q", kind))
	}
}
