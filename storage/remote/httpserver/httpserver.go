// Package httpserver is an in-process reference implementation of the §6
// remote store HTTP contract (GET/POST .../api/store/<namespace>[/<scenarioId>]).
// It exists only to drive storage/remote's Backend against a real
// net/http/httptest server in tests, without standing up an actual remote
// store service.
package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/MrtnvM/render-engine/keypath"
	"github.com/MrtnvM/render-engine/value"
)

type wirePatch struct {
	Op       string          `json:"op"`
	KeyPath  string          `json:"keyPath"`
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

type wireChange struct {
	Patches       []wirePatch     `json:"patches"`
	TransactionID string          `json:"transactionId,omitempty"`
	Scope         json.RawMessage `json:"scope"`
}

// Server holds, per namespace[/scenarioId], the object a real remote store
// would persist, and applies pushed patches to it the same way a Pull
// afterward would observe them: "set"/"merge" overwrite at keyPath, "remove"
// deletes it. It is not safe to mutate concurrently with requests other
// than through its own handler.
type Server struct {
	mu     sync.Mutex
	state  map[string]value.Object
	router *mux.Router
}

// New returns a ready Server with empty state for every namespace.
func New() *Server {
	s := &Server{state: map[string]value.Object{}}
	r := mux.NewRouter()
	r.HandleFunc("/api/store/{namespace}/{scenarioId}", s.handle).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/store/{namespace}", s.handle).Methods(http.MethodGet, http.MethodPost)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler so a Server can back an httptest.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func stateKey(r *http.Request) string {
	vars := mux.Vars(r)
	key := vars["namespace"]
	if sid := vars["scenarioId"]; sid != "" {
		key += "/" + sid
	}
	return key
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPost:
		s.handlePost(w, r)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	root := s.state[stateKey(r)]
	s.mu.Unlock()

	out := make(map[string]json.RawMessage, len(root))
	for k, v := range root {
		b, err := value.EncodeTagged(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out[k] = b
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	var changes []wireChange
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := stateKey(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	root := s.state[key]
	if root == nil {
		root = value.Object{}
	}
	for _, c := range changes {
		for _, p := range c.Patches {
			if p.Op == "remove" {
				newRoot, _ := keypath.Remove(root, p.KeyPath)
				root = newRoot.(value.Object)
				continue
			}
			if len(p.NewValue) == 0 {
				continue
			}
			v, err := value.DecodeTagged(p.NewValue)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			newRoot := keypath.Set(root, p.KeyPath, v)
			root = newRoot.(value.Object)
		}
	}
	s.state[key] = root
	w.WriteHeader(http.StatusOK)
}

// Snapshot returns a copy of the server's current state for
// namespace[/scenarioId], for test assertions.
func (s *Server) Snapshot(namespace, scenarioID string) value.Object {
	key := namespace
	if scenarioID != "" {
		key += "/" + scenarioID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	root := s.state[key]
	out := make(value.Object, len(root))
	for k, v := range root {
		out[k] = v
	}
	return out
}

// Seed pre-populates namespace[/scenarioId]'s state, for tests that need a
// non-empty Pull without first exercising Push.
func (s *Server) Seed(namespace, scenarioID string, data value.Object) {
	key := namespace
	if scenarioID != "" {
		key += "/" + scenarioID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	root := make(value.Object, len(data))
	for k, v := range data {
		root[k] = v
	}
	s.state[key] = root
}
