package fakehook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/logging"
	"github.com/five82/patio/internal/vehicle"
	"github.com/five82/patio/internal/webhook"
)

// PlateInfo is what the plate lookup fills in for a known plate.
type PlateInfo struct {
	ModelName string
	YearBuilt int
	ModelYear int
	Color     string
}

// Options configure a Server.
type Options struct {
	// Token, when set, must arrive as "Authorization: Bearer <token>".
	Token string
	// Prefix is the storage path segment uploaded photos are filed under.
	Prefix string
	// Delay is added before every answer so optimistic state stays visible.
	Delay time.Duration
	// Plates seeds the plate lookup table, keyed by upper-case plate.
	Plates map[string]PlateInfo
	// Seed is the initial inventory, newest first. Photo slots hold storage
	// paths.
	Seed   []vehicle.Vehicle
	Logger *slog.Logger
}

// Server is an in-memory stand-in for the inventory webhook.
type Server struct {
	mu       sync.Mutex
	vehicles []vehicle.Vehicle
	failures map[string][]int

	token  string
	prefix string
	delay  time.Duration
	plates map[string]PlateInfo
	log    *slog.Logger
	newID  func() string
}

// New builds a Server from opts.
func New(opts Options) *Server {
	plates := make(map[string]PlateInfo, len(opts.Plates))
	for plate, info := range opts.Plates {
		plates[normalizePlate(plate)] = info
	}
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix == "" {
		prefix = imagecodec.DefaultPrefix
	}
	return &Server{
		vehicles: append([]vehicle.Vehicle(nil), opts.Seed...),
		failures: make(map[string][]int),
		token:    opts.Token,
		prefix:   prefix,
		delay:    opts.Delay,
		plates:   plates,
		log:      logging.OrDiscard(opts.Logger),
		newID:    uuid.NewString,
	}
}

// Handler returns the HTTP router serving the webhook endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Use(s.injectFailures)
		r.Use(s.slowDown)

		r.Get("/"+webhook.EndpointVehicles, s.listVehicles)
		r.Post("/"+webhook.EndpointCreate, s.createVehicle)
		r.Post("/"+webhook.EndpointUpdate, s.updateVehicle)
		r.Post("/"+webhook.EndpointDelete, s.deleteVehicle)
		r.Post("/"+webhook.EndpointBulkDelete, s.bulkDeleteVehicles)
	})

	return r
}

// FailNext makes the next call to endpoint answer with status. Calls queue
// up: FailNext(e, 500) twice fails the next two calls.
func (s *Server) FailNext(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	endpoint = strings.Trim(endpoint, "/")
	s.failures[endpoint] = append(s.failures[endpoint], status)
}

// Vehicles returns a copy of the current inventory.
func (s *Server) Vehicles() []vehicle.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]vehicle.Vehicle(nil), s.vehicles...)
}

// Find returns the stored vehicle with id.
func (s *Server) Find(id string) (vehicle.Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.vehicles[i], true
	}
	return vehicle.Vehicle{}, false
}

func (s *Server) indexLocked(id string) int {
	for i, v := range s.vehicles {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) lookupPlate(plate string) (PlateInfo, bool) {
	info, ok := s.plates[normalizePlate(plate)]
	return info, ok
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(plate), "-", ""))
}

// Middleware

// logRequests logs each request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.token {
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := strings.Trim(r.URL.Path, "/")
		s.mu.Lock()
		queue := s.failures[endpoint]
		status := 0
		if len(queue) > 0 {
			status = queue[0]
			s.failures[endpoint] = queue[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) slowDown(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.delay > 0 {
			if err := sleep(r.Context(), s.delay); err != nil {
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Responses

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   map[string]any{"message": message},
	})
}
