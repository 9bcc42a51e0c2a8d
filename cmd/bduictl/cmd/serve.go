package cmd

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/MrtnvM/render-engine/internal/logging"
	"github.com/MrtnvM/render-engine/scenario"
)

var (
	serveAddr      string
	serveMaxConns  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an HTTP endpoint that decodes posted scenario documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		router := mux.NewRouter()
		router.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
		router.HandleFunc("/v1/scenarios/validate", handleValidateScenario).Methods(http.MethodPost)

		ln, err := net.Listen("tcp", serveAddr)
		if err != nil {
			return fatalf("bduictl: listen %s: %w", serveAddr, err)
		}
		if serveMaxConns > 0 {
			ln = netutil.LimitListener(ln, serveMaxConns)
		}

		srv := &http.Server{
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		log.WithFields(logging.Fields{"addr": serveAddr, "maxConns": serveMaxConns}).Info("bduictl: serving")
		return srv.Serve(ln)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8765", "listen address")
	serveCmd.Flags().IntVar(&serveMaxConns, "max-conns", 64, "maximum concurrent connections (0 disables the limit)")
	rootCmd.AddCommand(serveCmd)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type validateRequest struct {
	ScenarioID string          `json:"scenarioId"`
	Document   json.RawMessage `json:"document"`
}

type validateResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Stores  int    `json:"stores"`
	Actions int    `json:"actions"`
}

func handleValidateScenario(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, validateResponse{OK: false, Error: err.Error()})
		return
	}
	doc, err := scenario.Parse(req.Document, req.ScenarioID)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{OK: true, Stores: len(doc.Stores), Actions: len(doc.Actions)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
