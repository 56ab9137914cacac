package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vigilops/vigil/internal/logger"
)

type Config struct {
	Port int
}

// Simulator serves synthetic agent payloads over HTTP so the engine can
// be run end to end without real resources. Resources are created on
// first request and can be steered through the control endpoints.
type Simulator struct {
	config     Config
	resources  map[string]*ResourceSim
	mu         sync.RWMutex
	httpServer *http.Server
}

// AgentPayload is the wire format a resource agent serves.
type AgentPayload struct {
	ResourceID string        `json:"resource_id"`
	Timestamp  string        `json:"timestamp"`
	Metrics    []AgentMetric `json:"metrics"`
}

type AgentMetric struct {
	Name   string            `json:"name"`
	Value  float64           `json:"value"`
	Type   string            `json:"type,omitempty"`
	Unit   string            `json:"unit,omitempty"`
	Help   string            `json:"help,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

func New(cfg Config) *Simulator {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}

	return &Simulator{
		config:    cfg,
		resources: make(map[string]*ResourceSim),
	}
}

func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Simulator) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", cors(s.healthHandler))
	mux.HandleFunc("/metrics/", cors(s.metricsHandler))
	mux.HandleFunc("/resources", cors(s.listResourcesHandler))
	mux.HandleFunc("/resources/", cors(s.resourceHandler))
	mux.HandleFunc("/spike", cors(s.spikeHandler))
	mux.HandleFunc("/pattern", cors(s.patternHandler))

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("Simulator listening on %s", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	return nil
}

func (s *Simulator) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Simulator) GetOrCreateResource(resourceID string) *ResourceSim {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, exists := s.resources[resourceID]; exists {
		return res
	}

	res := NewResourceSim(resourceID, ResourceSimConfig{})
	s.resources[resourceID] = res

	logger.Infof("Created simulated resource: %s", resourceID)
	return res
}

func (s *Simulator) GetResource(resourceID string) (*ResourceSim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, exists := s.resources[resourceID]
	return res, exists
}

// HTTP handlers

func (s *Simulator) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "metrics-simulator",
	})
}

func (s *Simulator) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resourceID := r.URL.Path[len("/metrics/"):]
	if resourceID == "" {
		http.Error(w, "resource ID required", http.StatusBadRequest)
		return
	}

	res := s.GetOrCreateResource(resourceID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res.Sample())
}

func (s *Simulator) listResourcesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	resources := make([]map[string]interface{}, 0, len(s.resources))
	for id, res := range s.resources {
		resources = append(resources, map[string]interface{}{
			"id":      id,
			"pattern": res.GetPattern(),
		})
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"resources": resources,
		"count":     len(resources),
	})
}

func (s *Simulator) resourceHandler(w http.ResponseWriter, r *http.Request) {
	resourceID := r.URL.Path[len("/resources/"):]
	if resourceID == "" {
		http.Error(w, "resource ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getResourceHandler(w, resourceID)
	case http.MethodPost:
		s.createResourceHandler(w, r, resourceID)
	case http.MethodPut:
		s.updateResourceHandler(w, r, resourceID)
	case http.MethodDelete:
		s.deleteResourceHandler(w, resourceID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Simulator) getResourceHandler(w http.ResponseWriter, resourceID string) {
	res, exists := s.GetResource(resourceID)
	if !exists {
		http.Error(w, "resource not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res.Status())
}

type CreateResourceRequest struct {
	BaseCPU    float64 `json:"base_cpu"`
	BaseMemory float64 `json:"base_memory"`
	BaseDisk   float64 `json:"base_disk"`
	Variance   float64 `json:"variance"`
}

func (s *Simulator) createResourceHandler(w http.ResponseWriter, r *http.Request, resourceID string) {
	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res := NewResourceSim(resourceID, ResourceSimConfig{
		BaseCPU:    req.BaseCPU,
		BaseMemory: req.BaseMemory,
		BaseDisk:   req.BaseDisk,
		Variance:   req.Variance,
	})

	s.mu.Lock()
	s.resources[resourceID] = res
	s.mu.Unlock()

	logger.Infof("Created resource %s", resourceID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res.Status())
}

type UpdateResourceRequest struct {
	BaseCPU    *float64 `json:"base_cpu"`
	BaseMemory *float64 `json:"base_memory"`
	Variance   *float64 `json:"variance"`
}

func (s *Simulator) updateResourceHandler(w http.ResponseWriter, r *http.Request, resourceID string) {
	res, exists := s.GetResource(resourceID)
	if !exists {
		http.Error(w, "resource not found", http.StatusNotFound)
		return
	}

	var req UpdateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.BaseCPU != nil {
		res.SetBaseCPU(*req.BaseCPU)
	}
	if req.BaseMemory != nil {
		res.SetBaseMemory(*req.BaseMemory)
	}
	if req.Variance != nil {
		res.SetVariance(*req.Variance)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res.Status())
}

func (s *Simulator) deleteResourceHandler(w http.ResponseWriter, resourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[resourceID]; !exists {
		http.Error(w, "resource not found", http.StatusNotFound)
		return
	}

	delete(s.resources, resourceID)
	logger.Infof("Deleted resource %s", resourceID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "resource deleted"})
}

type SpikeRequest struct {
	ResourceID string  `json:"resource_id"`
	CPUTarget  float64 `json:"cpu_target"`
	Duration   string  `json:"duration"`
	RampUp     string  `json:"ramp_up"`
}

func (s *Simulator) spikeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SpikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res := s.GetOrCreateResource(req.ResourceID)

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		duration = 5 * time.Minute
	}

	rampUp, err := time.ParseDuration(req.RampUp)
	if err != nil {
		rampUp = 30 * time.Second
	}

	res.InjectSpike(req.CPUTarget, duration, rampUp)

	logger.Infof("Injected spike on resource %s: target=%.1f%%, duration=%s",
		req.ResourceID, req.CPUTarget, duration)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":     "spike injected",
		"resource_id": req.ResourceID,
		"cpu_target":  req.CPUTarget,
		"duration":    duration.String(),
		"ramp_up":     rampUp.String(),
	})
}

type PatternRequest struct {
	ResourceID string `json:"resource_id"`
	Pattern    string `json:"pattern"`
}

func (s *Simulator) patternHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res := s.GetOrCreateResource(req.ResourceID)
	res.SetPattern(ParsePattern(req.Pattern))

	logger.Infof("Set pattern %s on resource %s", req.Pattern, req.ResourceID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":     "pattern set",
		"resource_id": req.ResourceID,
		"pattern":     req.Pattern,
	})
}
