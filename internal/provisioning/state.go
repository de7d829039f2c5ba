package provisioning

import (
	"slices"
	"sync"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hkube/internal/config"
	"github.com/imamik/hkube/internal/remote"
)

// ProvisionedNode is a NodeSpec after its server exists. Address fields
// are only set once the provider reports them.
type ProvisionedNode struct {
	Spec            config.NodeSpec
	ExternalAddress string
	InternalAddress string
	ProviderID      int64
}

// Name returns the declared node name.
func (n ProvisionedNode) Name() string { return n.Spec.Name }

// Role returns the declared node role.
func (n ProvisionedNode) Role() config.Role { return n.Spec.Role }

// Target addresses the node for remote execution.
func (n ProvisionedNode) Target() remote.Target {
	return remote.Target{Name: n.Spec.Name, Address: n.ExternalAddress}
}

// ClusterJoinCredential is what a worker needs to join the control plane.
// It lives in memory for the duration of a run and is never persisted.
type ClusterJoinCredential struct {
	// Endpoint is host:port of the API server on the private network.
	Endpoint   string
	Token      string
	CACertHash string
}

// String redacts the token.
func (c ClusterJoinCredential) String() string {
	return "endpoint=" + c.Endpoint + " token=<redacted> ca-cert-hash=" + c.CACertHash
}

// ControlPlaneStatus is the observed state of the control-plane node.
type ControlPlaneStatus string

const (
	ControlPlaneUnknown       ControlPlaneStatus = ""
	ControlPlaneUninitialized ControlPlaneStatus = "uninitialized"
	ControlPlaneRunning       ControlPlaneStatus = "running"
)

// JoinStatus is the outcome of the join stage for one worker.
type JoinStatus string

const (
	JoinStatusJoined        JoinStatus = "joined"
	JoinStatusAlreadyJoined JoinStatus = "already-joined"
	JoinStatusFailed        JoinStatus = "failed"
	JoinStatusSkipped       JoinStatus = "skipped"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results. Methods that record
// per-node results are safe for concurrent use.
type State struct {
	// Infrastructure results (populated by compute)
	SSHKey   *hcloud.SSHKey
	Network  *hcloud.Network
	Firewall *hcloud.Firewall

	// Nodes in declaration order (populated by compute)
	Nodes []ProvisionedNode
	// Roles groups Nodes (populated by the role registry phase)
	Roles RoleGroup

	// Control-plane results
	ControlPlaneStatus ControlPlaneStatus
	Kubeconfig         []byte

	// JoinCredential is minted once per run by the join phase.
	JoinCredential *ClusterJoinCredential

	mu       sync.Mutex
	failures NodeErrors
	joins    map[string]JoinStatus
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{
		joins: make(map[string]JoinStatus),
	}
}

// RecordFailure stores a node-scoped failure.
func (s *State) RecordFailure(err *NodeError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
}

// Failures returns a copy of the node failures recorded so far.
func (s *State) Failures() NodeErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.failures)
}

// Failed reports whether node has a recorded failure and must be skipped
// by later stages.
func (s *State) Failed(node string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures.ForNode(node) != nil
}

// RecordJoin stores the join outcome of a worker.
func (s *State) RecordJoin(node string, status JoinStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joins == nil {
		s.joins = make(map[string]JoinStatus)
	}
	s.joins[node] = status
}

// JoinResults returns a copy of the per-worker join outcomes.
func (s *State) JoinResults() map[string]JoinStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]JoinStatus, len(s.joins))
	for k, v := range s.joins {
		out[k] = v
	}
	return out
}
