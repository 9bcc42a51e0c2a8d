package value

import "github.com/google/uuid"

// Op enumerates the kinds of mutation a Patch may record.
type Op int

const (
	OpSet Op = iota
	OpRemove
	OpMerge
)

func (op Op) String() string {
	switch op {
	case OpSet:
		return "set"
	case OpRemove:
		return "remove"
	case OpMerge:
		return "merge"
	default:
		return "unknown"
	}
}

// Patch records a single mutation applied at a KeyPath. OldValue is the
// pre-mutation snapshot at KeyPath (Null{} if it was absent); applying the
// Patch, or its inverse via OldValue, reconstructs the pre-state.
type Patch struct {
	Op       Op
	KeyPath  string
	OldValue Value
	NewValue Value
}

// Change is a batch of Patches sharing a single logical mutation. A
// transaction's patches share a single TransactionID and are ordered by
// their buffer order; a non-transactional Change carries an empty
// TransactionID.
type Change struct {
	Patches       []Patch
	TransactionID string
	Scope         Scope
}

// NewTransactionID returns a fresh transaction identifier for a committed
// transaction's Change.
func NewTransactionID() string {
	return uuid.NewString()
}

// ScopeKind discriminates the two Scope variants.
type ScopeKind int

const (
	ScopeApp ScopeKind = iota
	ScopeScenario
)

// Scope is the logical partition controlling a store's lifetime: either the
// single app-wide scope, or a scenario-bound scope keyed by scenario id.
type Scope struct {
	Kind       ScopeKind
	ScenarioID string
}

// AppScope is the singleton app-wide scope.
func AppScope() Scope { return Scope{Kind: ScopeApp} }

// ScenarioScope returns the scope bound to the given scenario id.
func ScenarioScope(id string) Scope { return Scope{Kind: ScopeScenario, ScenarioID: id} }

// String renders the scope's cache/identity key.
func (s Scope) String() string {
	if s.Kind == ScopeApp {
		return "app"
	}
	return "scenario:" + s.ScenarioID
}

// StorageKind discriminates the physical backing of a Storage reference.
type StorageKind int

const (
	StorageMemory StorageKind = iota
	StorageUserPrefs
	StorageFile
	StorageSession
	StorageBackend
)

func (k StorageKind) String() string {
	switch k {
	case StorageMemory:
		return "memory"
	case StorageUserPrefs:
		return "userPrefs"
	case StorageFile:
		return "file"
	case StorageSession:
		return "session"
	case StorageBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// StorageRef names a physical storage backend and its parameters: suite
// name for userPrefs, file URL for file, namespace for backend.
type StorageRef struct {
	Kind      StorageKind
	Suite     string
	FileURL   string
	Namespace string
}

// String renders the storage ref's cache/identity key.
func (s StorageRef) String() string {
	switch s.Kind {
	case StorageUserPrefs:
		if s.Suite != "" {
			return "userPrefs:" + s.Suite
		}
		return "userPrefs"
	case StorageFile:
		return "file:" + s.FileURL
	case StorageBackend:
		return "backend:" + s.Namespace
	default:
		return s.Kind.String()
	}
}
