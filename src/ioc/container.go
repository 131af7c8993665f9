package ioc

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/config"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/logging"
)

var currentId = 0

func getNextId() int {
	currentId += 1
	return currentId
}

// Container builds every component once from the Config it was created with.
type Container struct {
	ctx       context.Context
	cfg       *config.Config
	instances map[int]any
	isPending map[int]bool
	closers   []func() error
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	return &Container{
		ctx:       ctx,
		cfg:       cfg,
		instances: map[int]any{},
		isPending: map[int]bool{},
	}
}

func provider[T any](factory func(c *Container) T) func(c *Container) T {
	providerId := getNextId()
	return func(c *Container) T {
		if pending, ok := c.isPending[providerId]; ok && pending {
			logging.FatalLog(fmt.Sprintf("circular dependency of provider %d in a container", providerId))
		}
		if _, ok := c.instances[providerId]; !ok {
			c.isPending[providerId] = true
			c.instances[providerId] = factory(c)
			c.isPending[providerId] = false
		}
		// nil interface values are stored untyped
		instance, _ := c.instances[providerId].(T)
		return instance
	}
}

func (c *Container) onClose(closer func() error) {
	c.closers = append(c.closers, closer)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range slices.Backward(c.closers) {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
