package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrtnvM/render-engine/keypath"
	"github.com/MrtnvM/render-engine/storage"
	"github.com/MrtnvM/render-engine/storage/remote/httpserver"
	"github.com/MrtnvM/render-engine/value"
)

func newTestBackend(t *testing.T, srv *httpserver.Server, scope value.Scope) (*Backend, func()) {
	t.Helper()
	ts := httptest.NewServer(srv)
	b := New(Config{
		BaseURL:    ts.URL,
		Namespace:  "cart",
		ScenarioID: scope.ScenarioID,
		Scope:      scope,
		Client:     ts.Client(),
	})
	return b, ts.Close
}

func TestPullDecodesTaggedObject(t *testing.T) {
	srv := httpserver.New()
	srv.Seed("cart", "", value.Object{"total": value.Number(9.5)})
	b, closeFn := newTestBackend(t, srv, value.AppScope())
	defer closeFn()

	got, err := b.Pull(context.Background())
	require.NoError(t, err)
	require.Equal(t, value.Number(9.5), got["total"])
}

func TestPushChangeRoundTripsThroughPull(t *testing.T) {
	srv := httpserver.New()
	scope := value.ScenarioScope("checkout")
	b, closeFn := newTestBackend(t, srv, scope)
	defer closeFn()

	change := value.Change{
		TransactionID: "txn-1",
		Scope:         scope,
		Patches: []value.Patch{
			{Op: value.OpSet, KeyPath: "cart.total", OldValue: value.Null{}, NewValue: value.Number(12.0)},
		},
	}
	require.NoError(t, b.PushChange(context.Background(), change))

	got, err := b.Pull(context.Background())
	require.NoError(t, err)
	v, ok := keypath.Get(value.Object(got), "cart.total")
	require.True(t, ok)
	require.Equal(t, value.Number(12.0), v)
}

func TestPushChangeAppliesRemove(t *testing.T) {
	srv := httpserver.New()
	srv.Seed("cart", "", value.Object{"cart": value.Object{"total": value.Number(5)}})
	b, closeFn := newTestBackend(t, srv, value.AppScope())
	defer closeFn()

	change := value.Change{
		Scope: value.AppScope(),
		Patches: []value.Patch{
			{Op: value.OpRemove, KeyPath: "cart.total", OldValue: value.Number(5)},
		},
	}
	require.NoError(t, b.PushChange(context.Background(), change))

	got, err := b.Pull(context.Background())
	require.NoError(t, err)
	require.False(t, keypath.Exists(value.Object(got), "cart.total"), "expected remove patch to delete the key server-side")
}

func TestSaveEncodesOneChangePerCall(t *testing.T) {
	srv := httpserver.New()
	b, closeFn := newTestBackend(t, srv, value.AppScope())
	defer closeFn()

	require.NoError(t, b.Save(context.Background(), map[string]value.Value{
		"a": value.Integer(1),
		"b": value.String("x"),
	}))

	got, err := b.Pull(context.Background())
	require.NoError(t, err)
	require.Equal(t, value.Integer(1), got["a"])
	require.Equal(t, value.String("x"), got["b"])
}

func TestClearPushesAnEmptyPatchlessChange(t *testing.T) {
	srv := httpserver.New()
	srv.Seed("cart", "", value.Object{"a": value.Integer(1)})
	b, closeFn := newTestBackend(t, srv, value.AppScope())
	defer closeFn()

	// The remote's own retention policy decides whether an empty Change
	// deletes anything; this reference server has no patches to apply and
	// so leaves existing state untouched.
	require.NoError(t, b.Clear(context.Background()))
	require.Equal(t, value.Object{"a": value.Integer(1)}, srv.Snapshot("cart", ""))
}

func TestPullSurfacesHTTPErrorAsBackendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	b := New(Config{BaseURL: ts.URL, Namespace: "cart", Client: ts.Client(), MaxElapsed: 1})
	_, err := b.Pull(context.Background())
	require.Error(t, err)
	status, ok := storage.IsHTTP(err)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, status)
}

func TestEncodeChangeWrapsPatchesTransactionIDAndScope(t *testing.T) {
	change := value.Change{
		TransactionID: "txn-42",
		Scope:         value.ScenarioScope("s1"),
		Patches: []value.Patch{
			{Op: value.OpMerge, KeyPath: "cart", OldValue: value.Null{}, NewValue: value.Object{"qty": value.Integer(2)}},
		},
	}
	wc, err := encodeChange(change)
	require.NoError(t, err)
	require.Equal(t, "txn-42", wc.TransactionID)
	require.Equal(t, wireScope{Kind: "scenario", ScenarioID: "s1"}, wc.Scope)
	require.Len(t, wc.Patches, 1)
	require.Equal(t, "merge", wc.Patches[0].Op)
	require.Equal(t, "cart", wc.Patches[0].KeyPath)
	require.NotEmpty(t, wc.Patches[0].NewValue)
}

func TestEncodeScopeAppHasNoScenarioID(t *testing.T) {
	require.Equal(t, wireScope{Kind: "app"}, encodeScope(value.AppScope()))
}
