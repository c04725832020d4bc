package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	OpenAIURL    = "https://api.openai.com"
	DefaultModel = "gpt-4o-mini"
)

// ErrUnrecognizedIndexResponse means the index service answered a create
// call with an envelope we do not understand. That is a hard failure, not
// something to paper over with a default id.
var ErrUnrecognizedIndexResponse = errors.New("unrecognized response shape from index service")

type Client interface {
	// ChatCompletion sends the messages and returns the first choice's text.
	ChatCompletion(ctx context.Context, messages []Message, maxTokens int) (string, error)
	// ChatCompletionWithRetrieval is ChatCompletion plus a file_search tool
	// scoped to the given vector stores.
	ChatCompletionWithRetrieval(ctx context.Context, messages []Message, maxTokens int, vectorStoreIDs []string) (string, error)

	CreateVectorStore(ctx context.Context, name string) (string, error)
	UploadFile(ctx context.Context, filename string, content []byte) (string, error)
	AttachFile(ctx context.Context, vectorStoreID, fileID string) error
	ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]FileStatus, error)
}

type client struct {
	url        string
	model      string
	httpClient *http.Client
}

func New(apiKey string) (Client, error) {
	return newClient(OpenAIURL, apiKey), nil
}

func NewForTest(url, apiKey string) Client {
	return newClient(url, apiKey)
}

func newClient(url, apiKey string) *client {
	// A static bearer token source gives us an http.Client that adds the
	// Authorization header on every request.
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = 2 * time.Minute

	return &client{
		url:        url,
		model:      DefaultModel,
		httpClient: httpClient,
	}
}

// IsRetrievalUnsupported reports whether err is the service rejecting the
// retrieval tool parameter. The error payload naming the tool literal is
// the sole signal; everything else is an ordinary error.
func IsRetrievalUnsupported(err error) bool {
	return err != nil && strings.Contains(err.Error(), retrievalToolType)
}

func (c *client) ChatCompletion(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	return c.chat(ctx, chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
}

func (c *client) ChatCompletionWithRetrieval(ctx context.Context, messages []Message, maxTokens int, vectorStoreIDs []string) (string, error) {
	return c.chat(ctx, chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Tools: []chatTool{
			{
				Type:       retrievalToolType,
				FileSearch: chatToolFileSearch{VectorStoreIDs: vectorStoreIDs},
			},
		},
	})
}

func (c *client) chat(ctx context.Context, req chatRequest) (string, error) {
	var resp chatResponse
	if err := c.post(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *client) CreateVectorStore(ctx context.Context, name string) (string, error) {
	var resp vectorStoreResponse
	if err := c.post(ctx, "/v1/vector_stores", createVectorStoreRequest{Name: name}, &resp); err != nil {
		return "", fmt.Errorf("error creating vector store: %w", err)
	}

	if resp.ID == "" {
		return "", ErrUnrecognizedIndexResponse
	}
	return resp.ID, nil
}

func (c *client) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("error writing purpose field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return "", fmt.Errorf("error writing file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("error closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/v1/files", c.url), body)
	if err != nil {
		return "", fmt.Errorf("error creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp fileUploadResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("error uploading %s: %w", filename, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("upload of %s returned no file id", filename)
	}
	return resp.ID, nil
}

func (c *client) AttachFile(ctx context.Context, vectorStoreID, fileID string) error {
	var resp fileUploadResponse
	err := c.post(ctx, fmt.Sprintf("/v1/vector_stores/%s/files", vectorStoreID), attachFileRequest{FileID: fileID}, &resp)
	if err != nil {
		return fmt.Errorf("error attaching file %s: %w", fileID, err)
	}
	return nil
}

func (c *client) ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]FileStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/vector_stores/%s/files", c.url, vectorStoreID), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating list request: %w", err)
	}

	var resp listFilesResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("error listing vector store files: %w", err)
	}
	return resp.Data, nil
}

func (c *client) post(ctx context.Context, path string, payload, dest any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", c.url, path), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("error creating http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, dest)
}

func (c *client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}

	return nil
}
