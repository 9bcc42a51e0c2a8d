package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrtnvM/render-engine/action"
	"github.com/MrtnvM/render-engine/internal/logging"
	"github.com/MrtnvM/render-engine/kvstore"
	"github.com/MrtnvM/render-engine/resolver"
	"github.com/MrtnvM/render-engine/scenario"
	"github.com/MrtnvM/render-engine/storage"
	"github.com/MrtnvM/render-engine/storage/file"
	"github.com/MrtnvM/render-engine/storage/remote"
	"github.com/MrtnvM/render-engine/storage/userprefs"
	"github.com/MrtnvM/render-engine/storemanager"
	"github.com/MrtnvM/render-engine/value"
)

var (
	runScenarioID string
	runAppID      string
	runStoreDir   string
	runRemoteURL  string
	runRemoteAuth string
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.json>",
	Short: "Materialize a scenario's stores and execute its top-level actions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fatalf("bduictl: read %s: %w", args[0], err)
		}
		doc, err := scenario.Parse(raw, runScenarioID)
		if err != nil {
			return fatalf("bduictl: %w", err)
		}

		ctx := cmd.Context()
		mgr, err := storemanager.New(storemanager.DefaultBackendFactory(runHostedBackends()), 32, log)
		if err != nil {
			return fatalf("bduictl: store manager: %w", err)
		}

		stores, err := materializeStores(ctx, mgr, doc)
		if err != nil {
			return fatalf("bduictl: %w", err)
		}

		res := resolver.New(func(storeRef string) (*kvstore.Store, bool) {
			st, ok := stores[storeRef]
			return st, ok
		})

		exec := action.New(res, func(storeRef string) (*kvstore.Store, bool) {
			st, ok := stores[storeRef]
			return st, ok
		}, loggingNavSink{log}, loggingUiSink{log}, loggingSysSink{log}, disabledHTTPClient{}, log, nil)

		for i, a := range doc.Actions {
			log.WithFields(logging.Fields{"index": i, "id": a.ID, "kind": string(a.Kind)}).Info("executing action")
			if err := exec.Execute(ctx, a, nil); err != nil {
				return fatalf("bduictl: action %d (%s) failed: %w", i, a.ID, err)
			}
		}

		for key, st := range stores {
			fmt.Printf("store %s:\n", key)
			printObject(st.Snapshot())
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runScenarioID, "scenario-id", "cli", "scenario id bound to scenario-scoped store descriptors")
	runCmd.Flags().StringVar(&runAppID, "app-id", "bduictl", "app id userPrefs-backed stores are keyed under")
	runCmd.Flags().StringVar(&runStoreDir, "store-dir", "", "base directory file-backed stores resolve their file url under (defaults to the current directory)")
	runCmd.Flags().StringVar(&runRemoteURL, "remote-url", "", "base URL of the remote store service; required if the scenario declares a backend(namespace) store")
	runCmd.Flags().StringVar(&runRemoteAuth, "remote-auth", "", "value sent as the Authorization header on remote store requests")
	rootCmd.AddCommand(runCmd)
}

// runHostedBackends wires the three storage kinds that need host
// configuration beyond what a scenario document can express on its own:
// userPrefs needs an app id, file needs a base directory to resolve
// relative file urls under, and backend (remote) needs a service base URL.
// Passed as DefaultBackendFactory's next so memory/session keep resolving
// locally with no configuration at all.
func runHostedBackends() storemanager.BackendFactory {
	prefs := userprefs.NewInMemoryProvider()
	return func(scope value.Scope, ref value.StorageRef) (storage.Backend, error) {
		switch ref.Kind {
		case value.StorageUserPrefs:
			return userprefs.New(prefs, runAppID, scope.String(), ref.Suite), nil
		case value.StorageFile:
			path := ref.FileURL
			if runStoreDir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(runStoreDir, path)
			}
			return file.New(path, log), nil
		case value.StorageBackend:
			if runRemoteURL == "" {
				return nil, fmt.Errorf("bduictl: store %s:%s needs --remote-url", scope, ref)
			}
			cfg := remote.Config{BaseURL: runRemoteURL, Namespace: ref.Namespace, Scope: scope}
			if scope.Kind == value.ScopeScenario {
				cfg.ScenarioID = scope.ScenarioID
			}
			if runRemoteAuth != "" {
				cfg.Headers = map[string]string{"Authorization": runRemoteAuth}
			}
			return remote.New(cfg), nil
		default:
			return nil, fmt.Errorf("bduictl: unsupported storage kind %s", ref.Kind)
		}
	}
}

// materializeStores resolves and seeds every store descriptor in doc,
// keying each live store by "<scope>:<storage>" so that scenario authors
// can address them from action storeRef fields in this reference host. The
// wire-level storeRef convention is a bduictl simplification, not part of
// the core (spec §6 leaves storeRef addressing to the host).
func materializeStores(ctx context.Context, mgr *storemanager.Manager, doc *scenario.Document) (map[string]*kvstore.Store, error) {
	out := make(map[string]*kvstore.Store, len(doc.Stores))
	for _, sd := range doc.Stores {
		st, err := mgr.GetStore(ctx, sd.Scope, sd.Storage)
		if err != nil {
			return nil, fmt.Errorf("store %s:%s: %w", sd.Scope, sd.Storage, err)
		}
		if len(sd.InitialValue) > 0 {
			if err := st.ReplaceAll(ctx, sd.InitialValue); err != nil {
				return nil, fmt.Errorf("store %s:%s initial value: %w", sd.Scope, sd.Storage, err)
			}
		}
		out[sd.Scope.String()+":"+sd.Storage.String()] = st
	}
	return out, nil
}

func printObject(obj value.Object) {
	for _, k := range value.SortedKeys(obj) {
		fmt.Printf("  %s = %s\n", k, value.Stringify(obj[k]))
	}
}

type loggingNavSink struct{ log logging.Logger }

func (s loggingNavSink) logIntent(verb string, intent action.NavigationIntent) error {
	s.log.WithFields(logging.Fields{"kind": string(intent.Kind), "params": intent.Params}).Info("navigation." + verb)
	return nil
}
func (s loggingNavSink) Push(ctx context.Context, intent action.NavigationIntent) error {
	return s.logIntent("push", intent)
}
func (s loggingNavSink) Pop(ctx context.Context, intent action.NavigationIntent) error {
	return s.logIntent("pop", intent)
}
func (s loggingNavSink) Replace(ctx context.Context, intent action.NavigationIntent) error {
	return s.logIntent("replace", intent)
}
func (s loggingNavSink) Modal(ctx context.Context, intent action.NavigationIntent) error {
	return s.logIntent("modal", intent)
}
func (s loggingNavSink) DismissModal(ctx context.Context, intent action.NavigationIntent) error {
	return s.logIntent("dismissModal", intent)
}
func (s loggingNavSink) PopTo(ctx context.Context, intent action.NavigationIntent) error {
	return s.logIntent("popTo", intent)
}
func (s loggingNavSink) Reset(ctx context.Context, intent action.NavigationIntent) error {
	return s.logIntent("reset", intent)
}

type loggingUiSink struct{ log logging.Logger }

func (s loggingUiSink) logIntent(verb string, intent action.UiIntent) error {
	s.log.WithFields(logging.Fields{"message": intent.Message, "title": intent.Title, "buttons": len(intent.Buttons)}).Info("ui." + verb)
	return nil
}
func (s loggingUiSink) ShowToast(ctx context.Context, intent action.UiIntent) error {
	return s.logIntent("showToast", intent)
}
func (s loggingUiSink) ShowAlert(ctx context.Context, intent action.UiIntent) error {
	return s.logIntent("showAlert", intent)
}
func (s loggingUiSink) ShowSheet(ctx context.Context, intent action.UiIntent) error {
	return s.logIntent("showSheet", intent)
}
func (s loggingUiSink) DismissSheet(ctx context.Context, intent action.UiIntent) error {
	return s.logIntent("dismissSheet", intent)
}
func (s loggingUiSink) ShowLoading(ctx context.Context, intent action.UiIntent) error {
	return s.logIntent("showLoading", intent)
}
func (s loggingUiSink) HideLoading(ctx context.Context, intent action.UiIntent) error {
	return s.logIntent("hideLoading", intent)
}

type loggingSysSink struct{ log logging.Logger }

func (s loggingSysSink) logIntent(verb string, intent action.SystemIntent) error {
	s.log.WithFields(logging.Fields{"payload": intent.Payload}).Info("system." + verb)
	return nil
}
func (s loggingSysSink) Share(ctx context.Context, intent action.SystemIntent) error {
	return s.logIntent("share", intent)
}
func (s loggingSysSink) OpenURL(ctx context.Context, intent action.SystemIntent) error {
	return s.logIntent("openUrl", intent)
}
func (s loggingSysSink) Haptic(ctx context.Context, intent action.SystemIntent) error {
	return s.logIntent("haptic", intent)
}
func (s loggingSysSink) CopyToClipboard(ctx context.Context, intent action.SystemIntent) error {
	return s.logIntent("copyToClipboard", intent)
}
func (s loggingSysSink) RequestPermission(ctx context.Context, intent action.SystemIntent) error {
	return s.logIntent("requestPermission", intent)
}

// disabledHTTPClient refuses every api.request: bduictl is a local
// inspection tool, not a network client.
type disabledHTTPClient struct{}

func (disabledHTTPClient) Request(ctx context.Context, method, url string, headers map[string]string, body []byte, timeout time.Duration) (int, []byte, error) {
	return 0, nil, fmt.Errorf("bduictl: outbound http disabled (requested %s %s)", method, url)
}
