// Package rpc exposes the engine's three operations over line-delimited
// JSON-RPC 2.0: memory_insert, memory_search, memory_delete, dispatched
// through the initialize/tools/list/tools/call method set.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lmemory/memory"
	"github.com/lmemory/memory/ingest"
	"github.com/lmemory/memory/tier"
)

// Error codes on the wire, per the core's error taxonomy.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// ToolError carries a wire error code alongside its message, so the server
// loop can report it without re-deriving the code from the underlying
// *memory.Error.
type ToolError struct {
	Code    int
	Message string
}

func (e *ToolError) Error() string { return e.Message }

// invalidParams builds a *ToolError for an argument-validation failure,
// routing it through a genuine *memory.Error{Kind: memory.ErrInvalidParams}
// and codeFor rather than hardcoding the wire code here: argument
// validation belongs to this component, not the engine, but the resulting
// error still flows through the same Kind-to-code mapping every other
// error does.
func invalidParams(op, msg string) *ToolError {
	err := &memory.Error{Kind: memory.ErrInvalidParams, Op: op, Err: errors.New(msg)}
	return &ToolError{Code: codeFor(err), Message: msg}
}

// codeFor maps a memory.Error's Kind to its JSON-RPC numeric code.
func codeFor(err error) int {
	var memErr *memory.Error
	if errors.As(err, &memErr) {
		switch {
		case errors.Is(memErr, memory.ErrInvalidInput), errors.Is(memErr, memory.ErrInvalidParams):
			return CodeInvalidParams
		case errors.Is(memErr, memory.ErrNotFound):
			return CodeInvalidParams
		default:
			return CodeInternal
		}
	}
	return CodeInternal
}

// Dispatcher implements the three memory_* tool contracts against an
// *memory.Engine, translating engine errors to wire-ready *ToolError values.
type Dispatcher struct {
	engine *memory.Engine
}

// NewDispatcher returns a Dispatcher backed by engine.
func NewDispatcher(engine *memory.Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// InsertArgs is memory_insert's argument object.
type InsertArgs struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Tier     string         `json:"tier,omitempty"`
}

// InsertResult is memory_insert's result object.
type InsertResult struct {
	ID string `json:"id"`
}

// Insert implements memory_insert(text, metadata?, tier?) -> {id}.
func (d *Dispatcher) Insert(ctx context.Context, args InsertArgs) (InsertResult, error) {
	if args.Text == "" {
		return InsertResult{}, invalidParams("Insert", "missing required argument 'text'")
	}

	var override *ingest.Override
	if args.Tier != "" {
		t, err := tier.Parse(args.Tier)
		if err != nil {
			return InsertResult{}, invalidParams("Insert", err.Error())
		}
		override = &ingest.Override{Tier: &t}
	}

	id, err := d.engine.Ingest(ctx, args.Text, args.Metadata, override)
	if err != nil {
		return InsertResult{}, &ToolError{Code: codeFor(err), Message: err.Error()}
	}
	return InsertResult{ID: id.String()}, nil
}

// SearchArgs is memory_search's argument object.
type SearchArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchHit is one result entry in memory_search's response.
type SearchHit struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    float32        `json:"score"`
}

// SearchResult is memory_search's result object.
type SearchResult struct {
	Results []SearchHit `json:"results"`
}

// Search implements memory_search(query, top_k?) -> {results}. A filters
// argument is not supported; if present it is ignored.
func (d *Dispatcher) Search(ctx context.Context, args SearchArgs) (SearchResult, error) {
	if args.Query == "" {
		return SearchResult{}, invalidParams("Search", "missing required argument 'query'")
	}
	topK := args.TopK
	if topK <= 0 {
		topK = 5
	}

	results, err := d.engine.Search(ctx, args.Query, topK, 0, 0)
	if err != nil {
		return SearchResult{}, &ToolError{Code: codeFor(err), Message: err.Error()}
	}

	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{ID: r.ID.String(), Text: r.Text, Metadata: r.Metadata, Score: r.Score}
	}
	return SearchResult{Results: hits}, nil
}

// DeleteArgs is memory_delete's argument object: either a single id, or a
// filters object (currently supporting delete-by-tier).
type DeleteArgs struct {
	ID      string         `json:"id,omitempty"`
	Filters *DeleteFilters `json:"filters,omitempty"`
}

// DeleteFilters narrows a filtered delete.
type DeleteFilters struct {
	Tier string `json:"tier,omitempty"`
}

// DeleteResult is memory_delete's result object.
type DeleteResult struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

// Delete implements memory_delete(id) or memory_delete(filters) ->
// {success, deleted}.
func (d *Dispatcher) Delete(ctx context.Context, args DeleteArgs) (DeleteResult, error) {
	if args.ID == "" && args.Filters == nil {
		return DeleteResult{}, invalidParams("Delete", "missing required argument 'id' or 'filters'")
	}

	if args.ID != "" {
		id, err := uuid.Parse(args.ID)
		if err != nil {
			return DeleteResult{}, invalidParams("Delete", fmt.Sprintf("malformed id %q", args.ID))
		}
		existed, err := d.engine.Delete(ctx, id)
		if err != nil && !errors.Is(err, memory.ErrNotFound) {
			return DeleteResult{}, &ToolError{Code: codeFor(err), Message: err.Error()}
		}
		if !existed {
			return DeleteResult{Success: false, Deleted: 0}, nil
		}
		return DeleteResult{Success: true, Deleted: 1}, nil
	}

	t, err := tier.Parse(args.Filters.Tier)
	if err != nil {
		return DeleteResult{}, invalidParams("Delete", err.Error())
	}
	deleted, err := d.engine.DeleteByTier(ctx, t)
	if err != nil {
		return DeleteResult{}, &ToolError{Code: codeFor(err), Message: err.Error()}
	}
	return DeleteResult{Success: deleted > 0, Deleted: deleted}, nil
}

func unmarshalArgs[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, &ToolError{Code: CodeInvalidParams, Message: fmt.Sprintf("malformed arguments: %v", err)}
	}
	return v, nil
}
