package action

import (
	"context"
	"time"

	"github.com/MrtnvM/render-engine/value"
)

// NavigationIntent is emitted for every navigation.* action; the core does
// not own the screen stack (spec §4.10).
type NavigationIntent struct {
	Kind   Kind
	Params value.Object
}

// ButtonCallback re-enters the executor for an activated alert/sheet
// button, carrying the original triggering event's data (spec §6 UiSink).
type ButtonCallback func(ctx context.Context, button Button, eventData value.Value) error

// UiIntent is emitted for every ui.* action. Buttons is non-empty only for
// showAlert/showSheet; OnActivate lets the UI collaborator call back into
// the executor when a button is pressed.
type UiIntent struct {
	Kind       Kind
	Message    string
	Title      string
	Buttons    []Button
	OnActivate ButtonCallback
}

// SystemIntent is emitted for every system.* action.
type SystemIntent struct {
	Kind    Kind
	Payload value.Object
}

// NavigationSink is the external collaborator that owns the screen stack
// (spec §6).
type NavigationSink interface {
	Push(ctx context.Context, intent NavigationIntent) error
	Pop(ctx context.Context, intent NavigationIntent) error
	Replace(ctx context.Context, intent NavigationIntent) error
	Modal(ctx context.Context, intent NavigationIntent) error
	DismissModal(ctx context.Context, intent NavigationIntent) error
	PopTo(ctx context.Context, intent NavigationIntent) error
	Reset(ctx context.Context, intent NavigationIntent) error
}

// UiSink is the external collaborator that renders toasts, alerts, sheets
// and loading state (spec §6).
type UiSink interface {
	ShowToast(ctx context.Context, intent UiIntent) error
	ShowAlert(ctx context.Context, intent UiIntent) error
	ShowSheet(ctx context.Context, intent UiIntent) error
	DismissSheet(ctx context.Context, intent UiIntent) error
	ShowLoading(ctx context.Context, intent UiIntent) error
	HideLoading(ctx context.Context, intent UiIntent) error
}

// SystemSink is the external collaborator for share/open-url/haptic/clipboard/
// permission requests (spec §6).
type SystemSink interface {
	Share(ctx context.Context, intent SystemIntent) error
	OpenURL(ctx context.Context, intent SystemIntent) error
	Haptic(ctx context.Context, intent SystemIntent) error
	CopyToClipboard(ctx context.Context, intent SystemIntent) error
	RequestPermission(ctx context.Context, intent SystemIntent) error
}

// HTTPClient is the collaborator api.request resolves against (spec §6):
// request(method, url, headers, body?, timeout?) -> {status, body}.
type HTTPClient interface {
	Request(ctx context.Context, method, url string, headers map[string]string, body []byte, timeout time.Duration) (status int, respBody []byte, err error)
}
