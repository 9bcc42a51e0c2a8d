package action

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrtnvM/render-engine/internal/logging"
	"github.com/MrtnvM/render-engine/kvstore"
	"github.com/MrtnvM/render-engine/resolver"
	"github.com/MrtnvM/render-engine/value"
)

// Executor is the single dispatcher for every Action variant (spec §4.10).
// It resolves value/condition descriptors via resolver.Resolver (reading
// stores through the same StoreResolver), applies store mutations, and
// emits out-of-core intents to its NavigationSink/UiSink/SystemSink/HTTPClient
// collaborators.
type Executor struct {
	resolver *resolver.Resolver
	stores   resolver.StoreResolver

	nav NavigationSink
	ui  UiSink
	sys SystemSink
	http HTTPClient

	log     logging.Logger
	metrics *Metrics
}

// New returns an Executor. nav/ui/sys/http may be nil if the corresponding
// action kinds are never dispatched; metrics may be nil to disable
// instrumentation.
func New(res *resolver.Resolver, stores resolver.StoreResolver, nav NavigationSink, ui UiSink, sys SystemSink, http HTTPClient, log logging.Logger, metrics *Metrics) *Executor {
	if log == nil {
		log = logging.NewNoOpLogger()
	}
	return &Executor{resolver: res, stores: stores, nav: nav, ui: ui, sys: sys, http: http, log: log, metrics: metrics}
}

// Execute dispatches a single action invocation against eventData (spec
// §4.10's state machine: pending -> resolving-values -> applying ->
// {succeeded, failed}).
func (e *Executor) Execute(ctx context.Context, a Action, eventData value.Value) error {
	start := time.Now()
	rctx := resolver.Context{EventData: eventData}
	err := e.dispatch(ctx, a, rctx)
	e.metrics.observe(a.Kind, start, err)
	if err != nil {
		e.log.Warn("action: %s (id=%s) failed: %v", a.Kind, a.ID, err)
	}
	return err
}

func (e *Executor) dispatch(ctx context.Context, a Action, rctx resolver.Context) error {
	switch a.Kind {
	case KindStoreSet:
		return e.executeStoreSet(ctx, a, rctx)
	case KindStoreRemove:
		return e.executeStoreRemove(ctx, a, rctx)
	case KindStoreMerge:
		return e.executeStoreMerge(ctx, a, rctx)
	case KindStoreTransaction:
		return e.executeStoreTransaction(ctx, a, rctx)

	case KindNavigationPush, KindNavigationPop, KindNavigationReplace, KindNavigationModal,
		KindNavigationDismissModal, KindNavigationPopTo, KindNavigationReset:
		return e.executeNavigation(ctx, a, rctx)

	case KindUiShowToast, KindUiShowAlert, KindUiShowSheet, KindUiDismissSheet,
		KindUiShowLoading, KindUiHideLoading:
		return e.executeUi(ctx, a, rctx)

	case KindSystemShare, KindSystemOpenURL, KindSystemHaptic, KindSystemCopyToClipboard,
		KindSystemRequestPermission:
		return e.executeSystem(ctx, a, rctx)

	case KindAPIRequest:
		return e.executeAPIRequest(ctx, a, rctx)
	case KindSequence:
		return e.executeSequence(ctx, a, rctx)
	case KindConditional:
		return e.executeConditional(ctx, a, rctx)
	default:
		return invalidOperation("unknown action kind %q", a.Kind)
	}
}

func (e *Executor) resolveRequired(ctx context.Context, desc *resolver.ValueDescriptor, rctx resolver.Context) (value.Value, error) {
	if desc == nil {
		return nil, invalidOperation("action requires a value descriptor")
	}
	return e.resolver.ResolveValue(ctx, *desc, rctx)
}

func (e *Executor) store(storeRef string) (*kvstore.Store, error) {
	st, ok := e.stores(storeRef)
	if !ok {
		return nil, invalidOperation("unknown storeRef %q", storeRef)
	}
	return st, nil
}

func (e *Executor) executeStoreSet(ctx context.Context, a Action, rctx resolver.Context) error {
	st, err := e.store(a.StoreRef)
	if err != nil {
		return err
	}
	v, err := e.resolveRequired(ctx, a.Value, rctx)
	if err != nil {
		return err
	}
	return st.Set(ctx, a.KeyPath, v)
}

func (e *Executor) executeStoreRemove(ctx context.Context, a Action, rctx resolver.Context) error {
	st, err := e.store(a.StoreRef)
	if err != nil {
		return err
	}
	return st.Remove(ctx, a.KeyPath)
}

func (e *Executor) executeStoreMerge(ctx context.Context, a Action, rctx resolver.Context) error {
	st, err := e.store(a.StoreRef)
	if err != nil {
		return err
	}
	v, err := e.resolveRequired(ctx, a.Value, rctx)
	if err != nil {
		return err
	}
	if v.Kind() != value.KindObject {
		return invalidValueType("object", v.Kind().String(), a.KeyPath)
	}
	return st.Merge(ctx, a.KeyPath, v)
}

// executeStoreTransaction runs a's nested actions inside a transaction on
// the resolved store. Only store.set/store.remove/store.merge are valid
// nested kinds, matching the spec's "execute each nested action inside a
// transaction on the resolved store" for the case that motivates buffering:
// other action kinds have no meaningful rollback and are rejected.
func (e *Executor) executeStoreTransaction(ctx context.Context, a Action, rctx resolver.Context) error {
	st, err := e.store(a.StoreRef)
	if err != nil {
		return err
	}
	return st.Transaction(ctx, func(txn *kvstore.Txn) error {
		for _, nested := range a.Actions {
			if err := e.applyStoreOpToTxn(ctx, txn, nested, rctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Executor) applyStoreOpToTxn(ctx context.Context, txn *kvstore.Txn, a Action, rctx resolver.Context) error {
	switch a.Kind {
	case KindStoreSet:
		v, err := e.resolveRequired(ctx, a.Value, rctx)
		if err != nil {
			return err
		}
		return txn.Set(a.KeyPath, v)
	case KindStoreMerge:
		v, err := e.resolveRequired(ctx, a.Value, rctx)
		if err != nil {
			return err
		}
		if v.Kind() != value.KindObject {
			return invalidValueType("object", v.Kind().String(), a.KeyPath)
		}
		return txn.Merge(a.KeyPath, v)
	case KindStoreRemove:
		return txn.Remove(a.KeyPath)
	default:
		return invalidOperation("store.transaction only supports nested store.set/store.merge/store.remove, got %s", a.Kind)
	}
}

func (e *Executor) resolveParams(ctx context.Context, params map[string]resolver.ValueDescriptor, rctx resolver.Context) (value.Object, error) {
	out := make(value.Object, len(params))
	for k, desc := range params {
		v, err := e.resolver.ResolveValue(ctx, desc, rctx)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (e *Executor) executeNavigation(ctx context.Context, a Action, rctx resolver.Context) error {
	if e.nav == nil {
		return invalidOperation("no NavigationSink configured")
	}
	params, err := e.resolveParams(ctx, a.Params, rctx)
	if err != nil {
		return err
	}
	if a.ScreenID != "" {
		params["screenId"] = value.String(a.ScreenID)
	}
	intent := NavigationIntent{Kind: a.Kind, Params: params}
	switch a.Kind {
	case KindNavigationPush:
		return e.nav.Push(ctx, intent)
	case KindNavigationPop:
		return e.nav.Pop(ctx, intent)
	case KindNavigationReplace:
		return e.nav.Replace(ctx, intent)
	case KindNavigationModal:
		return e.nav.Modal(ctx, intent)
	case KindNavigationDismissModal:
		return e.nav.DismissModal(ctx, intent)
	case KindNavigationPopTo:
		return e.nav.PopTo(ctx, intent)
	case KindNavigationReset:
		return e.nav.Reset(ctx, intent)
	default:
		return invalidOperation("unreachable navigation kind %q", a.Kind)
	}
}

func (e *Executor) executeUi(ctx context.Context, a Action, rctx resolver.Context) error {
	if e.ui == nil {
		return invalidOperation("no UiSink configured")
	}
	var message, title string
	if a.Message != nil {
		v, err := e.resolver.ResolveValue(ctx, *a.Message, rctx)
		if err != nil {
			return err
		}
		message = value.Stringify(v)
	}
	if a.Title != nil {
		v, err := e.resolver.ResolveValue(ctx, *a.Title, rctx)
		if err != nil {
			return err
		}
		title = value.Stringify(v)
	}
	intent := UiIntent{Kind: a.Kind, Message: message, Title: title, Buttons: a.Buttons}
	if len(a.Buttons) > 0 {
		intent.OnActivate = func(cbCtx context.Context, button Button, eventData value.Value) error {
			return e.Execute(cbCtx, button.Action, eventData)
		}
	}
	switch a.Kind {
	case KindUiShowToast:
		return e.ui.ShowToast(ctx, intent)
	case KindUiShowAlert:
		return e.ui.ShowAlert(ctx, intent)
	case KindUiShowSheet:
		return e.ui.ShowSheet(ctx, intent)
	case KindUiDismissSheet:
		return e.ui.DismissSheet(ctx, intent)
	case KindUiShowLoading:
		return e.ui.ShowLoading(ctx, intent)
	case KindUiHideLoading:
		return e.ui.HideLoading(ctx, intent)
	default:
		return invalidOperation("unreachable ui kind %q", a.Kind)
	}
}

func (e *Executor) executeSystem(ctx context.Context, a Action, rctx resolver.Context) error {
	if e.sys == nil {
		return invalidOperation("no SystemSink configured")
	}
	payload, err := e.resolveParams(ctx, a.SystemPayload, rctx)
	if err != nil {
		return err
	}
	intent := SystemIntent{Kind: a.Kind, Payload: payload}
	switch a.Kind {
	case KindSystemShare:
		return e.sys.Share(ctx, intent)
	case KindSystemOpenURL:
		return e.sys.OpenURL(ctx, intent)
	case KindSystemHaptic:
		return e.sys.Haptic(ctx, intent)
	case KindSystemCopyToClipboard:
		return e.sys.CopyToClipboard(ctx, intent)
	case KindSystemRequestPermission:
		return e.sys.RequestPermission(ctx, intent)
	default:
		return invalidOperation("unreachable system kind %q", a.Kind)
	}
}

func (e *Executor) executeAPIRequest(ctx context.Context, a Action, rctx resolver.Context) error {
	if e.http == nil {
		return invalidOperation("no HTTPClient configured")
	}
	headers := map[string]string{}
	for k, desc := range a.Headers {
		v, err := e.resolver.ResolveValue(ctx, desc, rctx)
		if err != nil {
			return err
		}
		headers[k] = value.Stringify(v)
	}
	var bodyBytes []byte
	if a.Body != nil {
		v, err := e.resolver.ResolveValue(ctx, *a.Body, rctx)
		if err != nil {
			return err
		}
		b, err := value.EncodeBare(v)
		if err != nil {
			return err
		}
		bodyBytes = b
	}

	status, respBody, err := e.http.Request(ctx, a.Method, a.Endpoint, headers, bodyBytes, a.Timeout)
	if err != nil {
		errData := value.Object{"message": value.String(err.Error())}
		if ctx.Err() != nil {
			errData["status"] = value.Integer(0)
		}
		return e.handleAPIOutcome(ctx, a, rctx, false, errData, nil)
	}
	if status < 200 || status >= 300 {
		errData := value.Object{"status": value.Integer(int64(status)), "message": value.String(string(respBody))}
		return e.handleAPIOutcome(ctx, a, rctx, false, errData, nil)
	}

	parsed, perr := value.DecodeBare(respBody)
	if perr != nil {
		parsed = value.Null{}
	}
	if a.ResponseMapping != nil {
		st, ok := e.stores(a.ResponseMapping.StoreRef)
		if ok {
			toWrite := parsed
			if a.ResponseMapping.Transform != nil {
				toWrite = a.ResponseMapping.Transform(parsed)
			}
			if err := st.Set(ctx, a.ResponseMapping.KeyPath, toWrite); err != nil {
				e.log.Warn("action: api.request responseMapping write failed: %v", err)
			}
		}
	}
	return e.handleAPIOutcome(ctx, a, rctx, true, nil, parsed)
}

func (e *Executor) handleAPIOutcome(ctx context.Context, a Action, rctx resolver.Context, success bool, errData value.Object, okValue value.Value) error {
	if success {
		if len(a.OnSuccess) == 0 {
			return nil
		}
		return e.runActions(ctx, a.OnSuccess, true, value.Object{"value": okValue})
	}
	if len(a.OnError) == 0 {
		return backendErrorFrom(errData)
	}
	return e.runActions(ctx, a.OnError, true, errData)
}

func (e *Executor) runActions(ctx context.Context, actions []Action, stopOnError bool, eventData value.Value) error {
	for _, nested := range actions {
		if err := e.Execute(ctx, nested, eventData); err != nil {
			if stopOnError {
				return err
			}
			e.log.Warn("action: %s (id=%s) failed, continuing: %v", nested.Kind, nested.ID, err)
		}
	}
	return nil
}

func (e *Executor) executeSequence(ctx context.Context, a Action, rctx resolver.Context) error {
	if a.Strategy == StrategySerial {
		return e.runActions(ctx, a.Actions, a.StopOnError, rctx.EventData)
	}
	return e.runParallel(ctx, a.Actions, a.StopOnError, rctx.EventData)
}

// runParallel dispatches every action concurrently (spec §5: writes still
// serialize through each target store's own serialization point; order
// between actions is non-deterministic by contract).
func (e *Executor) runParallel(ctx context.Context, actions []Action, stopOnError bool, eventData value.Value) error {
	if stopOnError {
		g, gctx := errgroup.WithContext(ctx)
		for i := range actions {
			nested := actions[i]
			g.Go(func() error { return e.Execute(gctx, nested, eventData) })
		}
		return g.Wait()
	}

	var wg sync.WaitGroup
	for i := range actions {
		nested := actions[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Execute(ctx, nested, eventData); err != nil {
				e.log.Warn("action: parallel %s (id=%s) failed, continuing: %v", nested.Kind, nested.ID, err)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (e *Executor) executeConditional(ctx context.Context, a Action, rctx resolver.Context) error {
	if a.Condition == nil {
		return invalidOperation("conditional requires a condition")
	}
	ok, err := e.resolver.EvaluateCondition(ctx, *a.Condition, rctx)
	if err != nil {
		return err
	}
	branch := a.Else
	if ok {
		branch = a.Then
	}
	return e.runActions(ctx, branch, true, rctx.EventData)
}
