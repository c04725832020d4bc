package mockcontroller

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/DanielC11038/TempSlackBot/controller"
)

type C struct {
	mock.Mock
}

func (c *C) IngestEvent(ctx context.Context, eventKey string) (*controller.IngestResult, error) {
	args := c.Called(ctx, eventKey)

	var res *controller.IngestResult
	if args.Get(0) != nil {
		res = args.Get(0).(*controller.IngestResult)
	}

	return res, args.Error(1)
}

func (c *C) Answer(ctx context.Context, question, eventKey string) string {
	args := c.Called(ctx, question, eventKey)
	return args.String(0)
}

func (c *C) ListEvents() []controller.EventStatus {
	args := c.Called()

	var res []controller.EventStatus
	if args.Get(0) != nil {
		res = args.Get(0).([]controller.EventStatus)
	}

	return res
}
