package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	socketio "github.com/googollee/go-socket.io"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/caremesh/consult-chat-api/bus"
	"github.com/caremesh/consult-chat-api/chat"
	"github.com/caremesh/consult-chat-api/config"
	"github.com/caremesh/consult-chat-api/databases"
	"github.com/caremesh/consult-chat-api/models"
)

// App stores the router, db connection and realtime services, so they can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Socket   *socketio.Server
	Chat     *chat.Router
	Bus      bus.Bus
	Store    *databases.Store
	dbHelper databases.DatabaseHelper
	presence chat.PresenceStore
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()

	m := Message{DB: databases.NewMessageDatabase(a.dbHelper)}
	sim := NewSimulate(a.Chat)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// socket.io transport, the realtime surface clients actually use
	r.Handle("/socket.io/", a.Socket)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/room/{room_id}/messages", http.HandlerFunc(m.MessagesByRoomIDHandler)).Methods("GET")

	// simulation surface, drives the same event flow without a socket client
	apiCreate.Handle("/simulate/join-room", http.HandlerFunc(sim.JoinRoomHandler)).Methods("POST")
	apiCreate.Handle("/simulate/new-message", http.HandlerFunc(sim.NewMessageHandler)).Methods("POST")
	apiCreate.Handle("/simulate/disconnect", http.HandlerFunc(sim.DisconnectHandler)).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and the
// fan-out bus, bind the socket server and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("consult-chat-api has connected to the database")

	a.Store = databases.NewStore(a.dbHelper)

	// fan-out bus: redis when configured, in-process delivery otherwise
	if a.Config.RedisURL != "" {
		rb, err := bus.NewRedisBus(a.Config.RedisURL)
		if err != nil {
			zap.S().With(err).Error("failed to connect to redis")
			return err
		}
		a.Bus = rb
		a.presence = rb
		zap.S().Info("consult-chat-api has connected to the fan-out bus")
	} else {
		mb := bus.NewMemoryBus()
		a.Bus = mb
		a.presence = mb
		zap.S().Warn("REDIS_URL not set, broadcasts stay on this instance only")
	}

	if err := a.InitializeSocketIO(); err != nil {
		zap.S().With(err).Error("failed to initialize socket server")
		return err
	}

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
