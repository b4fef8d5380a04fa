// Package agent defines the agent definitions that terminal sessions launch.
package agent

import (
	"errors"
	"strings"
	"time"
)

// Definition describes how to launch one interactive coding agent.
type Definition struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Command     string    `json:"command" yaml:"command"`
	DefaultArgs []string  `json:"defaultArgs" yaml:"defaultArgs"`
	Model       string    `json:"model,omitempty" yaml:"model"`
	IsPrimary   bool      `json:"isPrimary" yaml:"isPrimary"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

// Validate checks the fields required to spawn the agent.
func (d *Definition) Validate() error {
	var errs []error
	if strings.TrimSpace(d.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(d.Command) == "" {
		errs = append(errs, errors.New("command is required"))
	}
	return errors.Join(errs...)
}
