package mcpserver

// RPCRequest represents a JSON-RPC 2.0 request
type RPCRequest struct {
	ID      string                 `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
	JSONRPC string                 `json:"jsonrpc"`
}

// RPCResponse represents a JSON-RPC 2.0 response
type RPCResponse struct {
	ID      string      `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	JSONRPC string      `json:"jsonrpc"`
}

// RPCError represents a JSON-RPC 2.0 error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface
func (e *RPCError) Error() string {
	return e.Message
}

// RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// ContentItem is one block of tool output rendered back into the
// conversation.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DomainFailure is an expected business outcome (full slot, unknown id).
// It travels inside the result payload, not on the RPC error channel.
type DomainFailure struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	RemainingCapacity *int   `json:"remaining_capacity,omitempty"`
}

// Domain failure codes
const (
	FailUnknownRestaurant = "unknown_restaurant"
	FailUnavailable       = "unavailable"
	FailClosed            = "closed"
	FailNotFound          = "not_found"
	FailAlreadyCancelled  = "already_cancelled"
	FailInvalidParty      = "invalid_party"
	FailInvalidSlot       = "invalid_slot"
)

// ToolResult is the payload a tool handler produces. Content carries the
// text rendering, Data the structured form, Failure the domain outcome when
// the operation could not do what was asked.
type ToolResult struct {
	Content []ContentItem  `json:"content"`
	Data    interface{}    `json:"data,omitempty"`
	Failure *DomainFailure `json:"failure,omitempty"`
}

// TextResult builds a ToolResult with a single text block.
func TextResult(text string, data interface{}) *ToolResult {
	return &ToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
		Data:    data,
	}
}

// FailureResult builds a ToolResult describing a domain failure.
func FailureResult(code, message string) *ToolResult {
	return &ToolResult{
		Content: []ContentItem{{Type: "text", Text: message}},
		Failure: &DomainFailure{Code: code, Message: message},
	}
}

// Resource describes a readable catalog resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mime_type"`
}
