package mocktba

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/DanielC11038/TempSlackBot/model"
)

type Client struct {
	mock.Mock
}

func (c *Client) GetEventBundle(ctx context.Context, eventKey string) (*model.EventBundle, error) {
	args := c.Called(ctx, eventKey)

	var res *model.EventBundle
	if args.Get(0) != nil {
		res = args.Get(0).(*model.EventBundle)
	}

	return res, args.Error(1)
}
