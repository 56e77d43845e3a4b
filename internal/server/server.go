package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/tattoo-studio/internal/compose"
	"github.com/ironsheep/tattoo-studio/internal/generate"
	"github.com/ironsheep/tattoo-studio/internal/imaging"
)

// Designs is the read side of the design library.
type Designs interface {
	Get(ctx context.Context, id string) (*generate.Design, error)
	Recent(ctx context.Context, limit int) ([]*generate.Design, error)
}

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.ImageCache
	renders   *compose.RenderCache
	generator generate.Generator
	designs   Designs
	version   string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithGenerator enables tattoo_generate. Without it the tool reports that
// generation is not configured.
func WithGenerator(g generate.Generator) Option {
	return func(s *Server) { s.generator = g }
}

// WithDesigns enables the design library tools.
func WithDesigns(d Designs) Option {
	return func(s *Server) { s.designs = d }
}

// WithRenderCache replaces the default preview cache.
func WithRenderCache(c *compose.RenderCache) Option {
	return func(s *Server) {
		if c != nil {
			s.renders = c
		}
	}
}

// WithVersion sets the version reported during initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// defaultRenderEntries sizes the preview cache when none is supplied.
const defaultRenderEntries = 32

// New creates a new MCP server instance
func New(opts ...Option) *Server {
	renders, _ := compose.NewRenderCache(defaultRenderEntries)
	s := &Server{
		cache:   imaging.NewImageCache(),
		renders: renders,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited requests from r and writes responses to w
// until r is exhausted or ctx is cancelled. Cancellation is noticed even
// while r is idle.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go readLines(r, lines, scanErr, stop)

	encoder := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			line = l
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}
}

// readLines feeds each line of r to lines until r ends or stop is closed.
// The scan result goes to errc before lines is closed.
func readLines(r io.Reader, lines chan<- []byte, errc chan<- error, stop <-chan struct{}) {
	defer close(lines)

	scanner := bufio.NewScanner(r)
	// Designs and backgrounds travel as paths, but leave room for large arguments.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case lines <- line:
		case <-stop:
			errc <- nil
			return
		}
	}
	if err := scanner.Err(); err != nil {
		errc <- fmt.Errorf("scanner error: %w", err)
		return
	}
	errc <- nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "tattoo-studio",
				"version": s.version,
			},
		},
	}
}
