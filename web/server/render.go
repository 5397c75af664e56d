package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-raymarcher/pkg/core"
	"github.com/df07/go-raymarcher/pkg/raymarch"
	"github.com/df07/go-raymarcher/pkg/renderer"
)

// RenderUpdate is the final event of a render stream
type RenderUpdate struct {
	RenderID  string               `json:"renderId"`
	ImageData string               `json:"imageData"` // Base64 encoded PNG
	Stats     renderer.RenderStats `json:"stats"`
	ElapsedMs int64                `json:"elapsedMs"`
}

// SSEEvent represents a server-sent event
type SSEEvent struct {
	Event string
	Data  string
}

// renderOutcome is what the render goroutine hands back to the stream
type renderOutcome struct {
	frame *renderer.Frame
	err   error
}

// handleRender renders a frame and streams console messages followed by the
// finished image as server-sent events
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	req, err := s.parseSceneRequest(r.URL.Query())
	if err != nil {
		s.sendSSEEvent(w, SSEEvent{Event: "error", Data: fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	renderID := uuid.New().String()
	consoleChan, logger := s.setupConsoleLogging(renderID)

	sceneObj, camera, marcher, err := req.load(raymarch.WithLogger(logger))
	if err != nil {
		s.sendSSEEvent(w, SSEEvent{Event: "error", Data: err.Error()})
		return
	}
	req.Options.Background = sceneObj.Background
	req.Options.Logger = logger

	// Use request context to detect client disconnection
	ctx := r.Context()
	startTime := time.Now()
	done := make(chan renderOutcome, 1)
	go func() {
		frame, err := renderer.Render(ctx, marcher, camera, req.Options)
		done <- renderOutcome{frame: frame, err: err}
	}()

	outcome := s.streamConsoleMessages(ctx, w, consoleChan, done)
	if outcome == nil {
		return
	}
	if outcome.err != nil {
		s.sendSSEEvent(w, SSEEvent{Event: "error", Data: fmt.Sprintf("Render error: %v", outcome.err)})
		return
	}

	imageData, err := s.imageToBase64PNG(outcome.frame.Image)
	if err != nil {
		s.sendSSEEvent(w, SSEEvent{Event: "error", Data: fmt.Sprintf("failed to encode image: %v", err)})
		return
	}
	update, err := json.Marshal(RenderUpdate{
		RenderID:  renderID,
		ImageData: imageData,
		Stats:     outcome.frame.Stats,
		ElapsedMs: time.Since(startTime).Milliseconds(),
	})
	if err != nil {
		s.sendSSEEvent(w, SSEEvent{Event: "error", Data: err.Error()})
		return
	}
	s.sendSSEEvent(w, SSEEvent{Event: "complete", Data: string(update)})
}

// setSSEHeaders sets the headers for server-sent events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates the console channel and a logger feeding it
func (s *Server) setupConsoleLogging(renderID string) (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 100)
	return consoleChan, NewWebLogger(renderID, consoleChan)
}

// streamConsoleMessages forwards console messages until the render finishes.
// It returns nil when the client went away first.
func (s *Server) streamConsoleMessages(ctx context.Context, w http.ResponseWriter, consoleChan chan ConsoleMessage, done <-chan renderOutcome) *renderOutcome {
	sendConsole := func(msg ConsoleMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		s.sendSSEEvent(w, SSEEvent{Event: "console", Data: string(data)})
	}

	for {
		select {
		case msg := <-consoleChan:
			sendConsole(msg)
		case outcome := <-done:
			// Drain what was logged before the render returned
			for {
				select {
				case msg := <-consoleChan:
					sendConsole(msg)
				default:
					return &outcome
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event SSEEvent) error {
	if flusher, ok := w.(http.Flusher); ok {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, event.Data)
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}
