package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	apierrors "github.com/copyleftdev/bioristor/internal/errors"
	"github.com/copyleftdev/bioristor/internal/solver"
)

// JSON-RPC 2.0 error codes.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type jobParams struct {
	ID string `json:"id"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
//
// Methods:
//
//	solver.solve       {"currents": {...}, "profile": {...}} -> Report
//	solver.algorithms  -> [Combination]
//	solver.submit      {"currents": {...}, "profile": {...}} -> Job
//	solver.status      {"id": "..."} -> Job
//	solver.cancel      {"id": "..."} -> Job
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.respondWithError(w, r, rpcParseError, "Parse error", nil, nil)
		return
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		s.respondWithError(w, r, rpcInvalidRequest, "Invalid Request", req.ID, nil)
		return
	}

	var (
		result interface{}
		err    error
	)

	switch req.Method {
	case "solver.solve":
		var params SolveRequest
		if err := decodeParams(req.Params, &params); err != nil {
			s.respondWithError(w, r, rpcInvalidParams, "Invalid params", req.ID, err.Error())
			return
		}
		result, err = s.solve(r.Context(), params)
	case "solver.algorithms":
		result = solver.Algorithms()
	case "solver.submit":
		var params SolveRequest
		if err := decodeParams(req.Params, &params); err != nil {
			s.respondWithError(w, r, rpcInvalidParams, "Invalid params", req.ID, err.Error())
			return
		}
		result, err = s.submit(params)
	case "solver.status", "solver.cancel":
		var params jobParams
		if err := decodeParams(req.Params, &params); err != nil || params.ID == "" {
			s.respondWithError(w, r, rpcInvalidParams, "Invalid params", req.ID, "id is required")
			return
		}
		if req.Method == "solver.status" {
			result, err = s.status(params.ID)
		} else {
			result, err = s.cancelJob(params.ID)
		}
	default:
		s.respondWithError(w, r, rpcMethodNotFound, "Method not found", req.ID, nil)
		return
	}

	if err != nil {
		apiErr := apierrors.FromSolver(err)
		code := rpcServerError
		if apiErr.StatusCode < http.StatusInternalServerError {
			code = rpcInvalidParams
		}
		s.respondWithError(w, r, code, apiErr.Message, req.ID, apiErr)
		return
	}

	render.JSON(w, r, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// decodeParams accepts the params as an object or as a single-element
// array holding the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing required parameters")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		if len(list) != 1 {
			return errors.New("expected a single parameter object")
		}
		raw = list[0]
	}
	return json.Unmarshal(raw, v)
}

// respondWithError sends a JSON-RPC 2.0 error response.
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, code int, message string, id, data interface{}) {
	s.logger.Warn("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	render.Status(r, http.StatusOK)
	render.JSON(w, r, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message, Data: data},
	})
}
