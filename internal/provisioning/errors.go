package provisioning

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every error surfaced by a stage matches exactly one of
// them via errors.Is.
var (
	ErrProvisioning     = errors.New("provisioning error")
	ErrReadinessTimeout = errors.New("readiness timeout")
	ErrConfiguration    = errors.New("configuration error")
	ErrPreparation      = errors.New("preparation error")
	ErrInitialization   = errors.New("initialization error")
	ErrManifestApply    = errors.New("manifest apply error")
	ErrJoin             = errors.New("join error")
)

var kindNames = []struct {
	kind error
	name string
}{
	{ErrProvisioning, "provisioning"},
	{ErrReadinessTimeout, "readiness_timeout"},
	{ErrConfiguration, "configuration"},
	{ErrPreparation, "preparation"},
	{ErrInitialization, "initialization"},
	{ErrManifestApply, "manifest_apply"},
	{ErrJoin, "join"},
}

// KindName returns a stable label for the first failure kind err matches, or "unknown".
func KindName(err error) string {
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "unknown"
}

// NodeError is a failure scoped to one node.
type NodeError struct {
	Stage string
	Node  string
	// Step names the failed sub-step, if the stage has any.
	Step string
	Kind error
	Err  error
}

// NewNodeError creates a node-scoped error of the given kind.
func NewNodeError(kind error, stage, node, step string, err error) *NodeError {
	return &NodeError{Stage: stage, Node: node, Step: step, Kind: kind, Err: err}
}

func (e *NodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: node %s", e.Kind, e.Node)
	if e.Step != "" {
		fmt.Fprintf(&b, " step %s", e.Step)
	}
	fmt.Fprintf(&b, " (%s)", e.Stage)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *NodeError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NodeErrors aggregates node-scoped failures of a run.
type NodeErrors []*NodeError

func (e NodeErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d node(s) failed: %s", len(e), strings.Join(msgs, "; "))
}

// Unwrap exposes every node error to errors.Is and errors.As.
func (e NodeErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, err := range e {
		errs = append(errs, err)
	}
	return errs
}

// ForNode returns the first failure recorded for node, or nil.
func (e NodeErrors) ForNode(node string) *NodeError {
	for _, err := range e {
		if err.Node == node {
			return err
		}
	}
	return nil
}

// Nodes returns the failed node names in failure order.
func (e NodeErrors) Nodes() []string {
	names := make([]string, 0, len(e))
	for _, err := range e {
		names = append(names, err.Node)
	}
	return names
}

// StageError wraps a run-scoped failure with its kind.
func StageError(kind error, stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", kind, stage, err)
}
