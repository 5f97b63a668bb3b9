package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aortez/cellsim-server/internal/metrics"
	"github.com/aortez/cellsim-server/internal/statemachine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewRouter builds the HTTP surface: a websocket upgrade endpoint serving
// the command/response + broadcast duplex channel, plus health and metrics
// endpoints.
func NewRouter(hub *Hub, machine *statemachine.Machine, m *metrics.Metrics, startedAt time.Time) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/ws", wsHandler(hub, machine))
	r.Get("/healthz", healthHandler(startedAt))
	r.Get("/health/live", livenessHandler())
	r.Get("/health/ready", readinessHandler(machine))
	if m != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	return r
}

func wsHandler(hub *Hub, machine *statemachine.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Msg("transport: websocket upgrade failed")
			return
		}
		client := newClient(conn, hub, machine)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

func healthHandler(startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","uptime_seconds":` +
			strconv.Itoa(int(time.Since(startedAt).Seconds())) + `}`))
	}
}

func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

// readinessHandler reports ready once the state machine has left Startup.
func readinessHandler(machine *statemachine.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if machine.CurrentStateName() == "startup" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

