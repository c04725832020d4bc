package openai

import "fmt"

// Message is one role-tagged turn in a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// retrievalToolType is the tool declaration that turns a completion into a
// retrieval-augmented call. Models that do not support it reject the
// request with an error payload naming this literal, which is the only
// signal used to detect "retrieval unsupported".
const retrievalToolType = "file_search"

// FileStatus is one entry from the vector store file listing. Status is
// free text from the service; only the lowercase value "processed" counts
// as done.
type FileStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type chatRequest struct {
	Model     string     `json:"model"`
	Messages  []Message  `json:"messages"`
	MaxTokens int        `json:"max_tokens,omitempty"`
	Tools     []chatTool `json:"tools,omitempty"`
}

type chatTool struct {
	Type       string             `json:"type"`
	FileSearch chatToolFileSearch `json:"file_search"`
}

type chatToolFileSearch struct {
	VectorStoreIDs []string `json:"vector_store_ids"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type createVectorStoreRequest struct {
	Name string `json:"name"`
}

type vectorStoreResponse struct {
	ID string `json:"id"`
}

type fileUploadResponse struct {
	ID string `json:"id"`
}

type attachFileRequest struct {
	FileID string `json:"file_id"`
}

type listFilesResponse struct {
	Data []FileStatus `json:"data"`
}

// APIError is a non-2xx response from the service, with the raw error
// payload preserved so callers can surface it verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai api error (status %d): %s", e.StatusCode, e.Body)
}
