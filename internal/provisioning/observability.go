package provisioning

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
)

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	// Printf logs an informational message.
	Printf(format string, v ...any)

	// Debugf logs at debug verbosity. Expected probe failures go here.
	Debugf(format string, v ...any)

	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for a phase
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "compute", "join")
	Message   string            // Human-readable message
	Resource  string            // Resource or node name if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreating indicates a resource is being ensured.
	EventResourceCreating EventType = "resource.creating"
	// EventResourceCreated indicates a resource is in its desired state.
	EventResourceCreated EventType = "resource.created"

	// EventNodeCompleted indicates a node finished a stage.
	EventNodeCompleted EventType = "node.completed"
	// EventNodeSkipped indicates a node was skipped because it already converged or failed earlier.
	EventNodeSkipped EventType = "node.skipped"
	// EventNodeFailed indicates a node-scoped failure.
	EventNodeFailed EventType = "node.failed"

	// EventValidationWarning indicates a validation warning.
	EventValidationWarning EventType = "validation.warning"

	// EventProgress indicates progress in a long-running operation.
	EventProgress EventType = "progress"
)

// LogrObserver implements Observer on top of a logr.Logger.
type LogrObserver struct {
	log           logr.Logger
	contextFields map[string]string
}

// NewLogrObserver creates an observer writing to log.
func NewLogrObserver(log logr.Logger) *LogrObserver {
	return &LogrObserver{
		log:           log,
		contextFields: make(map[string]string),
	}
}

// NewDiscardObserver returns an observer that drops everything.
func NewDiscardObserver() *LogrObserver {
	return NewLogrObserver(logr.Discard())
}

// Printf implements Observer.
func (o *LogrObserver) Printf(format string, v ...any) {
	o.log.Info(fmt.Sprintf(format, v...), o.keysAndValues(nil)...)
}

// Debugf implements Observer.
func (o *LogrObserver) Debugf(format string, v ...any) {
	o.log.V(1).Info(fmt.Sprintf(format, v...), o.keysAndValues(nil)...)
}

// Event implements Observer.
func (o *LogrObserver) Event(event Event) {
	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	kv = append(kv, o.keysAndValues(event.Fields)...)

	if event.Type == EventPhaseFailed || event.Type == EventNodeFailed {
		o.log.Error(nil, event.Message, kv...)
		return
	}
	o.log.Info(event.Message, kv...)
}

// Progress implements Observer.
func (o *LogrObserver) Progress(phase string, current, total int) {
	o.log.V(1).Info("progress", append([]any{"phase", phase, "current", current, "total", total}, o.keysAndValues(nil)...)...)
}

// WithFields implements Observer.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	newFields := make(map[string]string, len(o.contextFields)+len(fields))
	for k, v := range o.contextFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &LogrObserver{log: o.log, contextFields: newFields}
}

// keysAndValues merges context fields with extra, extra winning, in stable key order.
func (o *LogrObserver) keysAndValues(extra map[string]string) []any {
	merged := make(map[string]string, len(o.contextFields)+len(extra))
	for k, v := range o.contextFields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, merged[k])
	}
	return kv
}

// Helper functions for common events

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreating logs that a resource is being ensured.
func LogResourceCreating(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("ensuring %s", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogResourceCreated logs that a resource reached its desired state.
func LogResourceCreated(observer Observer, phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s ready", resourceType),
		Fields: map[string]string{
			"type": resourceType,
			"id":   resourceID,
		},
	})
}

// LogNodeCompleted logs that a node finished a stage.
func LogNodeCompleted(observer Observer, phase, node, message string) {
	observer.Event(Event{
		Type:     EventNodeCompleted,
		Phase:    phase,
		Resource: node,
		Message:  message,
	})
}

// LogNodeSkipped logs that a node was skipped.
func LogNodeSkipped(observer Observer, phase, node, reason string) {
	observer.Event(Event{
		Type:     EventNodeSkipped,
		Phase:    phase,
		Resource: node,
		Message:  reason,
	})
}

// LogNodeFailed logs a node-scoped failure.
func LogNodeFailed(observer Observer, err *NodeError) {
	fields := map[string]string{"kind": KindName(err)}
	if err.Step != "" {
		fields["step"] = err.Step
	}
	observer.Event(Event{
		Type:     EventNodeFailed,
		Phase:    err.Stage,
		Resource: err.Node,
		Message:  fmt.Sprintf("failed: %v", err.Err),
		Fields:   fields,
	})
}
