package storemanager

import (
	"context"
	"testing"

	"github.com/MrtnvM/render-engine/internal/logging"
	"github.com/MrtnvM/render-engine/value"
	"github.com/MrtnvM/render-engine/version"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := New(DefaultBackendFactory(nil), 16, logging.NewNoOpLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return mgr
}

func TestGetStoreReturnsSameInstance(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	ref := value.StorageRef{Kind: value.StorageMemory}

	st1, err := mgr.GetStore(ctx, value.AppScope(), ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	st2, err := mgr.GetStore(ctx, value.AppScope(), ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if st1 != st2 {
		t.Fatalf("expected GetStore to return the cached instance")
	}
}

func TestDefaultBackendFactoryRejectsUnconfiguredKinds(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.GetStore(context.Background(), value.AppScope(), value.StorageRef{Kind: value.StorageFile, FileURL: "/tmp/x.json"})
	if err == nil {
		t.Fatalf("expected error for unconfigured storage kind with nil delegate factory")
	}
}

func TestResetStoresDropsCachedInstance(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	ref := value.StorageRef{Kind: value.StorageMemory}

	st1, err := mgr.GetStore(ctx, value.AppScope(), ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if err := st1.Set(ctx, "x", value.Integer(1)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := mgr.ResetStores(ctx, value.AppScope()); err != nil {
		t.Fatalf("ResetStores: %v", err)
	}

	st2, err := mgr.GetStore(ctx, value.AppScope(), ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if st1 == st2 {
		t.Fatalf("expected a fresh store instance after ResetStores")
	}
	if st2.Exists("x") {
		t.Fatalf("expected reset to clear persisted state")
	}
}

func TestConfigureAndCleanupScenarioStores(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	if err := mgr.ConfigureScenarioStores(ctx, "s1"); err != nil {
		t.Fatalf("ConfigureScenarioStores: %v", err)
	}
	scope := value.ScenarioScope("s1")
	st, err := mgr.GetStore(ctx, scope, value.StorageRef{Kind: value.StorageMemory})
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if err := st.Set(ctx, "x", value.Integer(1)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mgr.CleanupScenarioStores("s1")

	st2, err := mgr.GetStore(ctx, scope, value.StorageRef{Kind: value.StorageMemory})
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if st == st2 {
		t.Fatalf("expected cleanup to drop the cached scenario store")
	}
}

func TestHandleVersionChangeEvictsOnlyOnMajorChange(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	scope := value.ScenarioScope("s1")
	ref := value.StorageRef{Kind: value.StorageMemory}

	st1, err := mgr.GetStore(ctx, scope, ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}

	mgr.HandleVersionChange(version.SemanticVersion{Major: 1, Minor: 0, Patch: 0}, version.SemanticVersion{Major: 1, Minor: 1, Patch: 0})
	st2, err := mgr.GetStore(ctx, scope, ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if st1 != st2 {
		t.Fatalf("expected minor version change to leave scenario stores cached")
	}

	mgr.HandleVersionChange(version.SemanticVersion{Major: 1, Minor: 1, Patch: 0}, version.SemanticVersion{Major: 2, Minor: 0, Patch: 0})
	st3, err := mgr.GetStore(ctx, scope, ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if st1 == st3 {
		t.Fatalf("expected major version change to evict scenario-scoped stores")
	}
}

func TestHandleVersionChangeDoesNotEvictAppScope(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	ref := value.StorageRef{Kind: value.StorageMemory}

	st1, err := mgr.GetStore(ctx, value.AppScope(), ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	mgr.HandleVersionChange(version.SemanticVersion{Major: 1}, version.SemanticVersion{Major: 2})
	st2, err := mgr.GetStore(ctx, value.AppScope(), ref)
	if err != nil {
		t.Fatalf("GetStore: %v", err)
	}
	if st1 != st2 {
		t.Fatalf("expected app-scoped store to survive a major version change")
	}
}
