package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/curve"
	"github.com/df07/go-raymarcher/pkg/interval"
	"github.com/df07/go-raymarcher/pkg/raymarch"
	"github.com/df07/go-raymarcher/pkg/renderer"
	"github.com/df07/go-raymarcher/pkg/volume"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Scene                 string            `json:"scene"`
	Pixel                 [2]int            `json:"pixel"`
	Luminance             [3]float64        `json:"luminance"`
	Transmittance         [3]float64        `json:"transmittance"`
	Stats                 raymarch.RayStats `json:"stats"`
	Segments              []SegmentInfo     `json:"segments"` // Disjoint traversal plan along the ray
	Components            []ComponentInfo   `json:"components"`
	LuminanceFunction     []KnotInfo        `json:"luminanceFunction"`
	TransmittanceFunction []KnotInfo        `json:"transmittanceFunction"`
	Diagnostics           []string          `json:"diagnostics"`
	Console               []ConsoleMessage  `json:"console"`
}

// SegmentInfo is one disjoint interval of the traversal plan
type SegmentInfo struct {
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	Components []string `json:"components"`
	StepLength float64  `json:"stepLength"`
}

// ComponentInfo describes a scene component the ray crosses
type ComponentInfo struct {
	Name       string                 `json:"name"`
	ShapeType  string                 `json:"shapeType"`
	Properties map[string]interface{} `json:"properties"`
}

// KnotInfo is one knot of a deep curve
type KnotInfo struct {
	Depth float64    `json:"depth"`
	Value [3]float64 `json:"value"`
}

func vec(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func knots(c *curve.ColorCurve) []KnotInfo {
	if c == nil {
		return nil
	}
	var out []KnotInfo
	for _, k := range c.Knots() {
		out = append(out, KnotInfo{Depth: k.Depth, Value: vec(k.Value)})
	}
	return out
}

// extractComponentInfo extracts detailed shape information with type assertions
func (s *Server) extractComponentInfo(c volume.Component) ComponentInfo {
	properties := map[string]interface{}{
		"extinction": vec(c.Medium.Extinction),
		"emission":   vec(c.Medium.Emission),
		"albedo":     vec(c.Medium.Albedo),
	}
	if c.StepLength > 0 {
		properties["stepLength"] = c.StepLength
	}

	shapeType := "unknown"
	switch shape := c.Shape.(type) {
	case *volume.Sphere:
		shapeType = "sphere"
		properties["center"] = vec(shape.Center)
		properties["radius"] = shape.Radius
		properties["falloff"] = shape.Falloff
	case *volume.Box:
		shapeType = "box"
		properties["min"] = vec(shape.Bounds.Min)
		properties["max"] = vec(shape.Bounds.Max)
	case *volume.Slab:
		shapeType = "slab"
		properties["bottom"] = shape.Bottom
		properties["top"] = shape.Top
		properties["falloff"] = shape.Falloff
	}

	return ComponentInfo{Name: c.Name, ShapeType: shapeType, Properties: properties}
}

// inspectPixel integrates one pixel with deep output and describes what its ray crosses
func (s *Server) inspectPixel(req *sceneRequest, pixelX, pixelY int) (*InspectResponse, error) {
	consoleChan, logger := s.setupConsoleLogging(fmt.Sprintf("inspect-%d-%d", pixelX, pixelY))
	sceneObj, camera, marcher, err := req.load(raymarch.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	opts := req.Options
	opts.DeepOutput = true
	state := renderer.NewPixelState(camera, pixelX, pixelY, opts)

	result, err := marcher.Integrate(&state)
	if err != nil {
		return nil, fmt.Errorf("integrating pixel (%d, %d): %w", pixelX, pixelY, err)
	}

	response := &InspectResponse{
		Scene:                 req.Scene,
		Pixel:                 [2]int{pixelX, pixelY},
		Luminance:             vec(result.Luminance),
		Transmittance:         vec(result.Transmittance),
		Stats:                 result.Stats,
		LuminanceFunction:     knots(result.LuminanceFunction),
		TransmittanceFunction: knots(result.TransmittanceFunction),
	}

	crossed := map[interval.ComponentID]bool{}
	for _, seg := range interval.Split(sceneObj.Intervals(&state)) {
		info := SegmentInfo{Min: seg.Min, Max: seg.Max, StepLength: seg.StepLength}
		for _, id := range seg.Components {
			info.Components = append(info.Components, sceneObj.Components[id].Name)
			crossed[id] = true
		}
		response.Segments = append(response.Segments, info)
	}
	for id, c := range sceneObj.Components {
		if crossed[interval.ComponentID(id)] {
			response.Components = append(response.Components, s.extractComponentInfo(c))
		}
	}
	for _, d := range result.Diagnostics {
		response.Diagnostics = append(response.Diagnostics, d.String())
	}

	// Integrate has returned, so everything it logged is buffered
	for len(consoleChan) > 0 {
		response.Console = append(response.Console, <-consoleChan)
	}
	return response, nil
}

// handleInspect handles pixel inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseSceneRequest(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	pixelX, err := parseIntParam(r.URL.Query(), "x", req.Width/2, 0, req.Width-1)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	pixelY, err := parseIntParam(r.URL.Query(), "y", req.Height/2, 0, req.Height-1)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := s.inspectPixel(req, pixelX, pixelY)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
