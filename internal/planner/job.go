// Package planner builds dependency-ordered job graphs by diffing a live
// component tree against a registry's persisted state (apply), or by
// inverting the tree into a parent-first deletion order (destroy).
package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Method is the lifecycle operation a Job will trigger.
type Method string

const (
	MethodCreate Method = "create"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

// Job is one unit of planned work: apply the named method to the
// component described by Data, after every job in Dependencies has run.
type Job struct {
	JobID        string
	Method       Method
	Data         map[string]any
	Dependencies []string
	Raises       bool
	CreatedAt    time.Time
	Diff         string

	component  string
	identifier string
	uuid       string
}

// NewJob constructs a job for the given method and encoded component data,
// deriving its component/identifier/uuid accessors from the well-known
// metadata keys in data.
func NewJob(method Method, data map[string]any, dependencies []string, raises bool) *Job {
	j := &Job{
		JobID:        uuid.New().String(),
		Method:       method,
		Data:         data,
		Dependencies: dependencies,
		Raises:       raises,
		CreatedAt:    time.Now(),
	}
	j.component, _ = data["component"].(string)
	j.identifier, _ = data["identifier"].(string)
	if u, ok := data["uuid"].(string); ok {
		j.uuid = u
	}
	return j
}

// Component returns the component type this job operates on.
func (j *Job) Component() string { return j.component }

// Identifier returns the identifier this job operates on.
func (j *Job) Identifier() string { return j.identifier }

// Huuid is the job-qualified identity string
// "{component}/{identifier}/{uuid}.{method}".
func (j *Job) Huuid() string {
	return fmt.Sprintf("%s/%s/%s.%s", j.component, j.identifier, j.uuid, j.Method)
}
