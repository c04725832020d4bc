package mockopenai

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/DanielC11038/TempSlackBot/platforms/openai"
)

type Client struct {
	mock.Mock
}

func (c *Client) ChatCompletion(ctx context.Context, messages []openai.Message, maxTokens int) (string, error) {
	args := c.Called(ctx, messages, maxTokens)
	return args.String(0), args.Error(1)
}

func (c *Client) ChatCompletionWithRetrieval(ctx context.Context, messages []openai.Message, maxTokens int, vectorStoreIDs []string) (string, error) {
	args := c.Called(ctx, messages, maxTokens, vectorStoreIDs)
	return args.String(0), args.Error(1)
}

func (c *Client) CreateVectorStore(ctx context.Context, name string) (string, error) {
	args := c.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (c *Client) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	args := c.Called(ctx, filename, content)
	return args.String(0), args.Error(1)
}

func (c *Client) AttachFile(ctx context.Context, vectorStoreID, fileID string) error {
	args := c.Called(ctx, vectorStoreID, fileID)
	return args.Error(0)
}

func (c *Client) ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]openai.FileStatus, error) {
	args := c.Called(ctx, vectorStoreID)

	var res []openai.FileStatus
	if args.Get(0) != nil {
		res = args.Get(0).([]openai.FileStatus)
	}

	return res, args.Error(1)
}
