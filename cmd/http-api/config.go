package main

import (
	"github.com/uswitch/graphbulk/pkg/config"
)

// ConfigFromPath loads the shared config and checks the API has what it needs
// to authenticate callers.
func ConfigFromPath(path string) (*config.Config, error) {
	c, err := config.FromPath(path)
	if err != nil {
		return nil, err
	}

	if err := c.ValidateAPI(); err != nil {
		return nil, err
	}

	return c, nil
}
