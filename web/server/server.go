package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/df07/go-raymarcher/pkg/raymarch"
	"github.com/df07/go-raymarcher/pkg/renderer"
	"github.com/df07/go-raymarcher/pkg/volume"
)

// Server handles web requests for the raymarcher
type Server struct {
	port   int
	config raymarch.Config
	mux    *http.ServeMux
}

// NewServer creates a new web server marching with config unless a request overrides it
func NewServer(port int, config raymarch.Config) *Server {
	s := &Server{port: port, config: config, mux: http.NewServeMux()}

	// Serve static files
	s.mux.Handle("/", http.FileServer(http.Dir("static/")))

	// API endpoints
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	glog.Infof("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// SceneInfo describes a built-in scene for clients
type SceneInfo struct {
	Name       string     `json:"name"`
	Components []string   `json:"components"`
	Background [3]float64 `json:"background"`
}

// handleScenes lists the built-in scenes and the server's default config
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	scenes := make([]SceneInfo, 0, len(volume.Names()))
	for _, name := range volume.Names() {
		sceneObj, err := volume.Builtin(name)
		if err != nil {
			continue
		}
		info := SceneInfo{
			Name:       name,
			Background: [3]float64{sceneObj.Background.X, sceneObj.Background.Y, sceneObj.Background.Z},
		}
		for _, c := range sceneObj.Components {
			info.Components = append(info.Components, c.Name)
		}
		scenes = append(scenes, info)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"scenes":   scenes,
		"defaults": s.config,
	})
}

// writeJSONError replies with a JSON error body
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sceneRequest holds the parameters shared by render and inspect
type sceneRequest struct {
	Scene   string
	Width   int
	Height  int
	Config  raymarch.Config
	Options renderer.Options
}

// parseSceneRequest parses the scene, image size and marcher overrides
func (s *Server) parseSceneRequest(values url.Values) (*sceneRequest, error) {
	req := &sceneRequest{
		Scene:   values.Get("scene"),
		Config:  s.config,
		Options: renderer.DefaultOptions(),
	}
	if req.Scene == "" {
		req.Scene = "cloud" // Default scene
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 320, 1, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", 240, 1, 2000); err != nil {
		return nil, err
	}
	if req.Config.StepLength, err = parseFloatParam(values, "stepLength", req.Config.StepLength, 1e-4, 10); err != nil {
		return nil, err
	}
	if marcher := values.Get("marcher"); marcher != "" {
		req.Config.Marcher = marcher
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}

	req.Options.Width = req.Width
	req.Options.Height = req.Height
	return req, nil
}

// load builds the requested scene, its camera and a marcher
func (req *sceneRequest) load(opts ...raymarch.Option) (*volume.Scene, *renderer.Camera, raymarch.Raymarcher, error) {
	sceneObj, err := volume.Builtin(req.Scene)
	if err != nil {
		return nil, nil, nil, err
	}
	marcher, err := raymarch.New(req.Config, sceneObj, append(opts, raymarch.WithSampler(sceneObj))...)
	if err != nil {
		return nil, nil, nil, err
	}
	camera := renderer.NewCamera(renderer.CameraConfig{
		Center: sceneObj.View.From,
		LookAt: sceneObj.View.At,
		Up:     sceneObj.View.Up,
		Width:  req.Width,
		Height: req.Height,
		VFov:   sceneObj.View.VFov,
	})
	return sceneObj, camera, marcher, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %f and %f, got: %f", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
