package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lmemory/memory"
	"github.com/lmemory/memory/codec"
)

// protocolVersion is echoed verbatim in the initialize response.
const protocolVersion = "2024-11-05"

const serverName = "local-memory"

// serverVersion is the wire-facing version string, independent of any
// module version.
const serverVersion = "0.1.0"

// request is one parsed JSON-RPC request line.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Server runs the line-delimited JSON-RPC 2.0 loop: one request per line on
// r, one response per line on w. It never touches os.Stdin/os.Stdout
// directly so it can be driven by strings.Reader/bytes.Buffer in tests.
type Server struct {
	dispatcher *Dispatcher
	logger     *memory.Logger
	codec      codec.Codec
}

// NewServer returns a Server dispatching tool calls through dispatcher.
// A nil logger disables request logging. The wire encoding is
// codec.Default; use WithCodec to override it (e.g. in tests that want to
// assert on the exact bytes written).
func NewServer(dispatcher *Dispatcher, logger *memory.Logger) *Server {
	if logger == nil {
		logger = memory.NoopLogger()
	}
	return &Server{dispatcher: dispatcher, logger: logger, codec: codec.Default}
}

// WithCodec overrides the wire codec used to decode requests and encode
// responses, returning s for chaining.
func (s *Server) WithCodec(c codec.Codec) *Server {
	s.codec = c
	return s
}

// Serve reads requests from r until EOF, writing one response line to w for
// every non-empty input line. It returns nil on a clean EOF. ctx is checked
// each time a line arrives: after cancellation, Serve returns ctx.Err() on
// the next line read, not while it is blocked waiting for input.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp := s.handleLine(ctx, line)
		if err := s.writeResponse(w, resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Server) handleLine(ctx context.Context, line string) response {
	var req request
	if err := s.codec.Unmarshal([]byte(line), &req); err != nil {
		return response{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: &wireError{Code: CodeParseError, Message: "parse error"}}
	}

	id := req.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}

	start := time.Now()
	result, rpcErr := s.dispatch(ctx, req)
	s.logger.LogRPC(ctx, req.Method, time.Since(start), rpcErrAsError(rpcErr))

	if rpcErr != nil {
		return response{JSONRPC: "2.0", ID: id, Error: &wireError{Code: rpcErr.Code, Message: rpcErr.Message}}
	}
	return response{JSONRPC: "2.0", ID: id, Result: result}
}

func rpcErrAsError(e *ToolError) error {
	if e == nil {
		return nil
	}
	return e
}

func (s *Server) dispatch(ctx context.Context, req request) (any, *ToolError) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": true},
			},
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": serverVersion,
			},
		}, nil

	case "tools/list":
		return map[string]any{"tools": toolDescriptors}, nil

	case "tools/call":
		var params toolCallParams
		if len(req.Params) > 0 {
			if err := s.codec.Unmarshal(req.Params, &params); err != nil {
				return nil, &ToolError{Code: CodeInvalidParams, Message: fmt.Sprintf("malformed params: %v", err)}
			}
		}
		return s.callTool(ctx, params.Name, params.Arguments)

	default:
		return nil, &ToolError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
}

func (s *Server) callTool(ctx context.Context, name string, arguments json.RawMessage) (any, *ToolError) {
	switch name {
	case "memory_insert":
		args, err := unmarshalArgs[InsertArgs](arguments)
		if err != nil {
			return nil, err.(*ToolError)
		}
		result, err := s.dispatcher.Insert(ctx, args)
		if err != nil {
			return nil, err.(*ToolError)
		}
		return result, nil

	case "memory_search":
		args, err := unmarshalArgs[SearchArgs](arguments)
		if err != nil {
			return nil, err.(*ToolError)
		}
		result, err := s.dispatcher.Search(ctx, args)
		if err != nil {
			return nil, err.(*ToolError)
		}
		return result, nil

	case "memory_delete":
		args, err := unmarshalArgs[DeleteArgs](arguments)
		if err != nil {
			return nil, err.(*ToolError)
		}
		result, err := s.dispatcher.Delete(ctx, args)
		if err != nil {
			return nil, err.(*ToolError)
		}
		return result, nil

	default:
		return nil, &ToolError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown tool %q", name)}
	}
}

// toolDescriptors is the static tools/list payload, matching the input
// schemas the dispatcher actually accepts.
var toolDescriptors = []map[string]any{
	{
		"name":        "memory_insert",
		"description": "Insert a new memory into the local database",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":     map[string]any{"type": "string", "description": "The text content to remember"},
				"metadata": map[string]any{"type": "object", "description": "Optional metadata associated with the memory"},
				"tier":     map[string]any{"type": "string", "description": "semantic (default) or episodic"},
			},
			"required": []string{"text"},
		},
	},
	{
		"name":        "memory_search",
		"description": "Search for relevant memories in the local database",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":  map[string]any{"type": "string", "description": "The search query"},
				"top_k":  map[string]any{"type": "integer", "description": "The number of results to return", "default": 5},
			},
			"required": []string{"query"},
		},
	},
	{
		"name":        "memory_delete",
		"description": "Delete a memory by id, or every memory matching a tier filter",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":      map[string]any{"type": "string", "description": "The id of the memory to delete"},
				"filters": map[string]any{"type": "object", "description": "Alternative to id, e.g. {\"tier\":\"episodic\"}"},
			},
		},
	},
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

func (s *Server) writeResponse(w io.Writer, resp response) error {
	data, err := s.codec.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
