// Package config loads task files: the connection parameters and query of
// one gateway call, written as YAML or CUE.
//
// A YAML task:
//
//	host: db.internal
//	port: 28015
//	user: admin
//	password: s3cret
//	query: db('test').table('authors')
//	timeout: 10s
//
// The same task in CUE uses the same field names. CUE files are unified with
// the embedded #Task schema, so ranges and patterns are checked by CUE
// itself; YAML files are decoded strictly and checked by Validate.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// DefaultPort is applied when a task file leaves the port out.
const DefaultPort = 28015

//go:embed task.cue
var taskSchema string

// Task is the content of a task file. Zero values mean "not set".
type Task struct {
	Host     string `yaml:"host" json:"host,omitempty"`
	Port     int    `yaml:"port" json:"port,omitempty"`
	User     string `yaml:"user" json:"user,omitempty"`
	Password string `yaml:"password" json:"password,omitempty"`
	Query    string `yaml:"query" json:"query,omitempty"`
	Timeout  string `yaml:"timeout" json:"timeout,omitempty"`
	History  string `yaml:"history" json:"history,omitempty"`
}

// ErrUnknownFormat is returned by Load for an unrecognized file extension.
var ErrUnknownFormat = errors.New("task file must end in .yaml, .yml or .cue")

// Load reads a task file, choosing the decoder by extension.
func Load(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".cue":
		return DecodeCUE(data, path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// DecodeYAML decodes a YAML task with strict field checking.
func DecodeYAML(data []byte) (*Task, error) {
	var task Task
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if task.Port == 0 {
		task.Port = DefaultPort
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}
	return &task, nil
}

// DecodeCUE compiles a CUE task, unifies it with #Task and decodes it.
// filename is used in error positions only.
func DecodeCUE(data []byte, filename string) (*Task, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(taskSchema, cue.Filename("task.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("building task schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("loading CUE task: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Task")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	var task Task
	if err := unified.Decode(&task); err != nil {
		return nil, fmt.Errorf("decoding CUE task: %w", err)
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}
	return &task, nil
}

// Validate checks field ranges. It does not require any field: a task file
// may supply only part of a call.
func (t *Task) Validate() error {
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", t.Port)
	}
	if t.Timeout != "" {
		if _, err := t.TimeoutDuration(); err != nil {
			return err
		}
	}
	return nil
}

// TimeoutDuration parses Timeout. An empty Timeout is zero.
func (t *Task) TimeoutDuration() (time.Duration, error) {
	if t.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(t.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative, got %s", t.Timeout)
	}
	return d, nil
}

// Settings returns the task's set fields keyed by setting name, suitable
// for merging under environment and flag values.
func (t *Task) Settings() map[string]any {
	out := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("host", t.Host)
	set("user", t.User)
	set("password", t.Password)
	set("query", t.Query)
	set("timeout", t.Timeout)
	set("history", t.History)
	if t.Port != 0 {
		out["port"] = t.Port
	}
	return out
}
