// Package remote implements the backend storage kind: a namespace on an
// opaque remote service reachable via GET/POST per the §6 wire contract.
// Retries and backoff around the HTTP call are this package's concern; the
// remote service's own consistency/merge policy is out of core.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"

	"github.com/MrtnvM/render-engine/storage"
	"github.com/MrtnvM/render-engine/value"
)

// HTTPClient is the minimal collaborator the remote backend needs; the
// standard library's *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a remote backend instance.
type Config struct {
	BaseURL    string
	Namespace  string
	ScenarioID string
	Scope      value.Scope
	Headers    map[string]string
	Client     HTTPClient
	// MaxElapsed bounds the total retry/backoff window for a single call.
	MaxElapsed time.Duration
}

// Backend talks to the remote store service over HTTP with exponential
// backoff on transient failures.
type Backend struct {
	cfg Config
}

// New returns a remote backend for the given configuration. Absent an
// injected Client, the default one carries a cookie jar scoped by the
// public suffix list so a multi-host deployment of the remote service
// cannot leak session cookies across registrable domains, and its
// transport is upgraded to speak HTTP/2 where the remote service offers it.
func New(cfg Config) *Backend {
	if cfg.Client == nil {
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		transport := &http.Transport{}
		_ = http2.ConfigureTransport(transport)
		cfg.Client = &http.Client{Jar: jar, Transport: transport}
	}
	if cfg.MaxElapsed == 0 {
		cfg.MaxElapsed = 10 * time.Second
	}
	return &Backend{cfg: cfg}
}

func (b *Backend) url() string {
	u := fmt.Sprintf("%s/api/store/%s", b.cfg.BaseURL, b.cfg.Namespace)
	if b.cfg.ScenarioID != "" {
		u += "/" + b.cfg.ScenarioID
	}
	return u
}

func (b *Backend) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.url(), body)
	if err != nil {
		return nil, err
	}
	for k, v := range b.cfg.Headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (b *Backend) backoffPolicy(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = b.cfg.MaxElapsed
	return backoff.WithContext(bo, ctx)
}

// Load performs Pull: GET <baseURL>/api/store/<namespace>[/<scenarioId>].
func (b *Backend) Load(ctx context.Context) (map[string]value.Value, error) {
	return b.Pull(ctx)
}

// Pull fetches the namespace's current state: a JSON object
// {keyPath: StoreValue} in tagged form (spec §6).
func (b *Backend) Pull(ctx context.Context) (map[string]value.Value, error) {
	var result map[string]value.Value
	op := func() error {
		req, err := b.newRequest(ctx, http.MethodGet, nil)
		if err != nil {
			return backoff.Permanent(storage.TransportError("remote backend: build request: %v", err))
		}
		resp, err := b.cfg.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(storage.TimeoutError("remote backend: pull timed out: %v", err))
			}
			return storage.TransportError("remote backend: pull: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(storage.HTTPError(resp.StatusCode, "remote backend: pull status %d", resp.StatusCode))
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return backoff.Permanent(storage.DecodeError("remote backend: decode pull response: %v", err))
		}
		out := make(map[string]value.Value, len(raw))
		for k, v := range raw {
			dv, err := value.DecodeTagged(v)
			if err != nil {
				return backoff.Permanent(storage.DecodeError("remote backend: decode %s: %v", k, err))
			}
			out[k] = dv
		}
		result = out
		return nil
	}
	if err := backoff.Retry(op, b.backoffPolicy(ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

// Save overwrites the remote namespace wholesale: every key in data is
// encoded as a synthetic "set" patch with no oldValue and pushed as a
// single Change. This is the full-snapshot fallback every Backend must
// support; a Store instead calls PushChange with the real committed Change
// whenever the backend implements storage.ChangePusher, so Save is only
// exercised directly (seeding, a ReplaceAll landing on a backend with no
// richer path, tests).
func (b *Backend) Save(ctx context.Context, data map[string]value.Value) error {
	patches := make([]value.Patch, 0, len(data))
	for k, v := range data {
		patches = append(patches, value.Patch{Op: value.OpSet, KeyPath: k, NewValue: v})
	}
	return b.push(ctx, []value.Change{{Patches: patches, Scope: b.cfg.Scope}})
}

// PushChange implements storage.ChangePusher: it forwards the exact Change
// the store just committed, preserving op kind, oldValue and transactionId,
// none of which Save's full-snapshot encoding can reconstruct.
func (b *Backend) PushChange(ctx context.Context, change value.Change) error {
	return b.push(ctx, []value.Change{change})
}

// push performs: POST <baseURL>/api/store/<namespace>[/<scenarioId>] with
// body Change[] (spec §6). Push is best-effort; failures are returned to
// the caller rather than blocking local writes.
func (b *Backend) push(ctx context.Context, changes []value.Change) error {
	payload, err := encodeChanges(changes)
	if err != nil {
		return storage.DecodeError("remote backend: encode push payload: %v", err)
	}
	op := func() error {
		req, err := b.newRequest(ctx, http.MethodPost, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(storage.TransportError("remote backend: build request: %v", err))
		}
		resp, err := b.cfg.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(storage.TimeoutError("remote backend: push timed out: %v", err))
			}
			return storage.TransportError("remote backend: push: %v", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(storage.HTTPError(resp.StatusCode, "remote backend: push status %d", resp.StatusCode))
		}
		return nil
	}
	return backoff.Retry(op, b.backoffPolicy(ctx))
}

// Clear pushes an empty Change; the remote's own retention policy
// determines whether this actually deletes state.
func (b *Backend) Clear(ctx context.Context) error {
	return b.push(ctx, []value.Change{{Scope: b.cfg.Scope}})
}

func (b *Backend) SupportsConcurrentAccess() bool { return true }

type wirePatch struct {
	Op       string          `json:"op"`
	KeyPath  string          `json:"keyPath"`
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

type wireScope struct {
	Kind       string `json:"kind"`
	ScenarioID string `json:"scenarioId,omitempty"`
}

type wireChange struct {
	Patches       []wirePatch `json:"patches"`
	TransactionID string      `json:"transactionId,omitempty"`
	Scope         wireScope   `json:"scope"`
}

// encodeChanges marshals changes into the Change[] body the §6 POST
// contract requires: each element carries its patches, optional
// transactionId and owning scope, rather than a bare patch array.
func encodeChanges(changes []value.Change) ([]byte, error) {
	out := make([]wireChange, len(changes))
	for i, c := range changes {
		wc, err := encodeChange(c)
		if err != nil {
			return nil, err
		}
		out[i] = wc
	}
	return json.Marshal(out)
}

func encodeChange(c value.Change) (wireChange, error) {
	patches := make([]wirePatch, len(c.Patches))
	for i, p := range c.Patches {
		wp, err := encodePatch(p)
		if err != nil {
			return wireChange{}, err
		}
		patches[i] = wp
	}
	return wireChange{
		Patches:       patches,
		TransactionID: c.TransactionID,
		Scope:         encodeScope(c.Scope),
	}, nil
}

func encodePatch(p value.Patch) (wirePatch, error) {
	wp := wirePatch{Op: p.Op.String(), KeyPath: p.KeyPath}
	if p.NewValue != nil {
		b, err := value.EncodeTagged(p.NewValue)
		if err != nil {
			return wirePatch{}, err
		}
		wp.NewValue = b
	}
	if p.OldValue != nil {
		b, err := value.EncodeTagged(p.OldValue)
		if err != nil {
			return wirePatch{}, err
		}
		wp.OldValue = b
	}
	return wp, nil
}

func encodeScope(s value.Scope) wireScope {
	if s.Kind == value.ScopeScenario {
		return wireScope{Kind: "scenario", ScenarioID: s.ScenarioID}
	}
	return wireScope{Kind: "app"}
}
