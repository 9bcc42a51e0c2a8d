// Package action implements the declarative action schema and its single
// executor (C9): store mutations, navigation/UI/system intents, API
// requests and control flow (spec §4.10).
package action

import (
	"time"

	"github.com/MrtnvM/render-engine/resolver"
	"github.com/MrtnvM/render-engine/value"
)

// Kind is the exact wire tag of an action variant (spec §6).
type Kind string

const (
	KindStoreSet         Kind = "store.set"
	KindStoreRemove      Kind = "store.remove"
	KindStoreMerge       Kind = "store.merge"
	KindStoreTransaction Kind = "store.transaction"

	KindNavigationPush         Kind = "navigation.push"
	KindNavigationPop          Kind = "navigation.pop"
	KindNavigationReplace      Kind = "navigation.replace"
	KindNavigationModal        Kind = "navigation.modal"
	KindNavigationDismissModal Kind = "navigation.dismissModal"
	KindNavigationPopTo        Kind = "navigation.popTo"
	KindNavigationReset        Kind = "navigation.reset"

	KindUiShowToast    Kind = "ui.showToast"
	KindUiShowAlert    Kind = "ui.showAlert"
	KindUiShowSheet    Kind = "ui.showSheet"
	KindUiDismissSheet Kind = "ui.dismissSheet"
	KindUiShowLoading  Kind = "ui.showLoading"
	KindUiHideLoading  Kind = "ui.hideLoading"

	KindSystemShare            Kind = "system.share"
	KindSystemOpenURL          Kind = "system.openUrl"
	KindSystemHaptic           Kind = "system.haptic"
	KindSystemCopyToClipboard  Kind = "system.copyToClipboard"
	KindSystemRequestPermission Kind = "system.requestPermission"

	KindAPIRequest  Kind = "api.request"
	KindSequence    Kind = "sequence"
	KindConditional Kind = "conditional"
)

// SequenceStrategy selects how a sequence's nested actions run.
type SequenceStrategy int

const (
	StrategySerial SequenceStrategy = iota
	StrategyParallel
)

// Button is one alert/sheet button: its label resolves to text, and
// activating it re-enters the executor with Action bound to the triggering
// event's data (spec §4.10, §6 UiSink).
type Button struct {
	Text   resolver.ValueDescriptor
	Action Action
}

// ResponseMapping writes an api.request's parsed response body into a store
// before onSuccess runs (spec §4.10).
type ResponseMapping struct {
	StoreRef  string
	KeyPath   string
	Transform func(value.Value) value.Value
}

// Action is the tagged declarative command dispatched by Executor.Execute.
// Only the fields relevant to Kind are populated; the rest are the zero
// value.
type Action struct {
	ID   string
	Kind Kind

	// store.set / store.remove / store.merge
	StoreRef string
	KeyPath  string
	Value    *resolver.ValueDescriptor

	// store.transaction / sequence / conditional branches
	Actions []Action

	// navigation.*
	ScreenID string
	Params   map[string]resolver.ValueDescriptor

	// ui.*
	Message *resolver.ValueDescriptor
	Title   *resolver.ValueDescriptor
	Buttons []Button

	// system.*
	SystemPayload map[string]resolver.ValueDescriptor

	// api.request
	Endpoint        string
	Method          string
	Headers         map[string]resolver.ValueDescriptor
	Body            *resolver.ValueDescriptor
	OnSuccess       []Action
	OnError         []Action
	ResponseMapping *ResponseMapping
	Timeout         time.Duration

	// sequence
	Strategy    SequenceStrategy
	StopOnError bool

	// conditional
	Condition *resolver.ConditionDescriptor
	Then      []Action
	Else      []Action
}

// State is the lifecycle of a single action invocation (spec §4.10):
// pending -> resolving-values -> applying -> {succeeded, failed}.
type State int

const (
	StatePending State = iota
	StateResolvingValues
	StateApplying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolvingValues:
		return "resolving-values"
	case StateApplying:
		return "applying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
