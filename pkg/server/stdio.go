package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/statbridge/pkg/buildinfo"
	"github.com/matzehuels/statbridge/pkg/errors"
	"github.com/matzehuels/statbridge/pkg/pipeline"
	"github.com/matzehuels/statbridge/pkg/tools"
)

// ProtocolVersion is the MCP revision the stdio server implements.
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// maxLineSize bounds one JSON-RPC message.
const maxLineSize = 16 << 20

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Content is one item of a tool or resource result.
type Content struct {
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// CallResult is the result of tools/call.
type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Resource describes one readable resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// Stdio serves the registry as newline-delimited JSON-RPC.
type Stdio struct {
	Registry *tools.Registry
	Runner   *pipeline.Runner
	Logger   *log.Logger

	mu sync.Mutex
}

// NewStdio creates a stdio server. A nil logger uses log.Default(); callers
// must make sure it does not write to the protocol stream.
func NewStdio(reg *tools.Registry, r *pipeline.Runner, logger *log.Logger) *Stdio {
	if logger == nil {
		logger = log.Default()
	}
	return &Stdio{Registry: reg, Runner: r, Logger: logger}
}

// Serve reads requests from in until EOF or ctx is done, writing responses
// to out. Requests are handled one at a time in arrival order.
func (s *Stdio) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	enc := json.NewEncoder(out)

	s.Logger.Info("stdio server ready", "protocol", ProtocolVersion, "tools", len(s.Registry.List()))
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		resp := s.handleLine(ctx, line)
		if resp == nil {
			continue
		}
		s.mu.Lock()
		err := enc.Encode(resp)
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

// handleLine returns nil for notifications.
func (s *Stdio) handleLine(ctx context.Context, line []byte) *response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse(json.RawMessage("null"), codeParseError, "parse error: "+err.Error())
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		id := req.ID
		if len(id) == 0 {
			id = json.RawMessage("null")
		}
		return errorResponse(id, codeInvalidRequest, "invalid request")
	}
	if len(req.ID) == 0 {
		s.Logger.Debug("notification", "method", req.Method)
		return nil
	}

	result, rerr := s.dispatch(ctx, req)
	if rerr != nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Error: rerr}
	}
	return &response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, code int, msg string) *response {
	return &response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}

func (s *Stdio) dispatch(ctx context.Context, req request) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo": map[string]string{
				"name":    buildinfo.Name,
				"version": buildinfo.Version,
			},
		}, nil

	case "ping":
		return map[string]any{}, nil

	case "tools/list":
		return map[string]any{"tools": s.Registry.List()}, nil

	case "tools/call":
		var p struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
			return nil, &rpcError{Code: codeInvalidParams, Message: "tools/call requires a tool name"}
		}
		return s.call(ctx, p.Name, p.Arguments), nil

	case "resources/list":
		return map[string]any{"resources": s.resources()}, nil

	case "resources/read":
		var p struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil || p.URI == "" {
			return nil, &rpcError{Code: codeInvalidParams, Message: "resources/read requires a uri"}
		}
		c, err := s.read(p.URI)
		if err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		return map[string]any{"contents": []Content{c}}, nil
	}
	return nil, &rpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
}

// call runs one tool. Tool failures are results with IsError set, never
// JSON-RPC errors.
func (s *Stdio) call(ctx context.Context, name string, args json.RawMessage) *CallResult {
	id := uuid.NewString()
	logger := s.Logger.With("call", id[:8], "tool", name)
	logger.Debug("tools/call")

	out, err := s.invoke(ctx, name, args)
	if err != nil {
		logger.Warn("tool error", "err", err)
		return &CallResult{Content: []Content{{Type: "text", Text: payloadText(err)}}, IsError: true}
	}
	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Error("encode result", "err", err)
		return &CallResult{Content: []Content{{Type: "text", Text: payloadText(err)}}, IsError: true}
	}
	return &CallResult{Content: []Content{{Type: "text", Text: string(text)}}}
}

// invoke runs the tool, turning a panic into an internal error so one bad
// call cannot end the session.
func (s *Stdio) invoke(ctx context.Context, name string, args json.RawMessage) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("tool panicked", "tool", name, "panic", r)
			out, err = nil, errors.New(errors.ErrCodeInternal, "tool %s failed: %v", name, r)
		}
	}()
	return s.Registry.Call(ctx, name, args)
}

func payloadText(err error) string {
	data, merr := json.MarshalIndent(errors.ToPayload(err), "", "  ")
	if merr != nil {
		return err.Error()
	}
	return string(data)
}

const resourcePrefix = "stats://"

func (s *Stdio) resources() []Resource {
	var out []Resource
	for _, info := range s.Runner.Sources() {
		if !info.Enabled {
			continue
		}
		out = append(out, Resource{
			URI:         resourcePrefix + info.ID + "/info",
			Name:        info.Name + " - info",
			Description: info.Description,
			MimeType:    "application/json",
		})
	}
	return out
}

func (s *Stdio) read(uri string) (Content, error) {
	id, ok := strings.CutPrefix(uri, resourcePrefix)
	if ok {
		id, ok = strings.CutSuffix(id, "/info")
	}
	if !ok {
		return Content{}, fmt.Errorf("unknown resource: %s", uri)
	}
	for _, info := range s.Runner.Sources() {
		if info.ID != id || !info.Enabled {
			continue
		}
		data, err := json.MarshalIndent(map[string]string{
			"name":        info.Name,
			"description": info.Description,
			"license":     info.License,
			"baseUrl":     info.BaseURL,
		}, "", "  ")
		if err != nil {
			return Content{}, err
		}
		return Content{URI: uri, MimeType: "application/json", Text: string(data)}, nil
	}
	return Content{}, fmt.Errorf("unknown resource: %s", uri)
}
