package power

import "time"

// Operation names a power operation for reports and metrics.
type Operation string

const (
	// OperationUp wakes nodes and waits for them to come up.
	OperationUp Operation = "up"

	// OperationDown shuts nodes down.
	OperationDown Operation = "down"

	// OperationRestart reboots nodes.
	OperationRestart Operation = "restart"

	// OperationStatus probes nodes once without changing anything.
	OperationStatus Operation = "status"
)

// NodeState is the observed outcome of a power operation for one node.
type NodeState string

const (
	// StateReachable means the node accepted an SSH session.
	StateReachable NodeState = "reachable"

	// StateUnreachable means the node never accepted a session.
	StateUnreachable NodeState = "unreachable"

	// StateAcked means the node accepted a shutdown or restart
	// command. The node going silent right after counts as an ack.
	StateAcked NodeState = "acked"

	// StateSkipped means no command was attempted, either because the
	// node was already down or because the operation was cancelled
	// before its turn.
	StateSkipped NodeState = "skipped"

	// StateFailed means the node was reached but the command failed.
	StateFailed NodeState = "failed"
)

// NodeResult is the per-node outcome of a power operation.
type NodeResult struct {
	// Node is the node name from the hardware profile.
	Node string `json:"node" yaml:"node"`

	// State is the observed outcome.
	State NodeState `json:"state" yaml:"state"`

	// Detail carries the underlying diagnostic for skipped and failed
	// nodes.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Summary aggregates the per-node results of one operation.
type Summary struct {
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Failed    int           `json:"failed" yaml:"failed"`
	Ticks     int           `json:"ticks,omitempty" yaml:"ticks,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Report is the aggregate outcome of a power operation. Every selected
// node appears in Results exactly once, including after cancellation.
type Report struct {
	Operation Operation    `json:"operation" yaml:"operation"`
	Results   []NodeResult `json:"results" yaml:"results"`
	Summary   Summary      `json:"summary" yaml:"summary"`
}

// NewReport creates an empty report for the given operation.
func NewReport(op Operation) *Report {
	return &Report{
		Operation: op,
		Results:   []NodeResult{},
	}
}

// Add appends a per-node result and updates the summary counts.
func (r *Report) Add(res NodeResult) {
	r.Results = append(r.Results, res)
	r.Summary.Total++

	switch res.State {
	case StateReachable, StateAcked:
		r.Summary.Succeeded++
	case StateSkipped:
		r.Summary.Skipped++
	case StateUnreachable, StateFailed:
		r.Summary.Failed++
	}
}

// OK reports whether the operation succeeded for every node. Skipped
// nodes do not count against success.
func (r *Report) OK() bool {
	return r.Summary.Failed == 0
}

// FailedNodes returns the names of nodes that were unreachable or
// failed, in result order.
func (r *Report) FailedNodes() []string {
	var names []string
	for _, res := range r.Results {
		if res.State == StateUnreachable || res.State == StateFailed {
			names = append(names, res.Node)
		}
	}
	return names
}

// ReachableNodes returns the names of nodes observed reachable, in
// result order.
func (r *Report) ReachableNodes() []string {
	var names []string
	for _, res := range r.Results {
		if res.State == StateReachable {
			names = append(names, res.Node)
		}
	}
	return names
}
