// Package raft implements the simulated Raft-like consensus plugin
// described in spec.md §4.10: leader election, heartbeat-driven
// replication of named consensus variables, and active-node failure
// detection. Grounded on bundoc/raft/{node,election,replication,transport}.go
// hand-rolled state machine, generalized from goroutines/sync.Mutex/
// time.Timer to single-threaded callbacks driven by the event loop's timer
// handler (§5 "do not introduce parallelism casually"); from a TCP/Gob wire
// format to JSON envelopes exchanged as CommunicationCommand string payloads
// (message.go); and from a single log replicated by index to named,
// independently committed consensus variables (§9 design notes).
package raft

import (
	"encoding/json"
	"math/rand"
	"os"

	"github.com/rs/zerolog"

	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

// Role mirrors bundoc/raft's State: the node's current position in the
// election state machine.
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Candidate:
		return "candidate"
	case Leader:
		return "leader"
	default:
		return "follower"
	}
}

const (
	timerElection  = "election"
	timerHeartbeat = "heartbeat"
	timerDiscovery = "discovery"
)

// activeNodesCache is the follower-side cache of the leader's last reported
// active-node set (§4.10 pre-election).
type activeNodesCache struct {
	count int
	list  []int
	at    float64 // simulated seconds when cached
	set   bool
}

// Node is a single participant in the consensus plugin, one per simulated
// protocol instance (§4.10). It embeds protocol.Base for the Provider
// plumbing and no-op HandleTelemetry/HandleTimer-less ethos; raft overrides
// every callback it cares about.
type Node struct {
	protocol.Base

	cfg         *Config
	typeChecker *TypeChecker
	knownNodes  []int // includes self, fixed at construction
	rng         *rand.Rand
	selfID      int

	role        Role
	currentTerm uint64
	votedFor    *int
	leaderID    *int
	votes       map[int]struct{}

	consensusValues map[string]any
	committedValues map[string]any
	termNumber      uint64

	activeCache activeNodesCache

	discovering         bool
	discoveryResponses  map[int]struct{}
	discoveredActiveCnt *int

	matchIndex       map[int]uint64
	replicationIndex map[int]int
	fd               *FailureDetector

	isActive bool

	logger zerolog.Logger
}

// New builds a raft Node for a cluster of knownNodes (including this node's
// own id). rng may be nil, in which case a *rand.Rand seeded with 1 is used.
func New(cfg *Config, knownNodes []int, rng *rand.Rand) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tc, err := newTypeChecker(cfg.ConsensusVars)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	n := &Node{
		cfg:              cfg,
		typeChecker:      tc,
		knownNodes:       knownNodes,
		rng:              rng,
		role:             Follower,
		votes:            make(map[int]struct{}),
		consensusValues:  make(map[string]any),
		committedValues:  make(map[string]any),
		discoveryResponses: make(map[int]struct{}),
		matchIndex:       make(map[int]uint64),
		replicationIndex: make(map[int]int),
		fd:               newFailureDetector(cfg.FailureDetection, cfg.heartbeatTimeoutMs()),
		isActive:         true,
		logger:           zerolog.New(os.Stderr).With().Str("logger", "gradysim-raft").Timestamp().Logger(),
	}
	n.fd.onFailure = func(peerID int) {
		n.logger.Warn().Int("self", n.selfID).Int("peer", peerID).Msg("peer marked FAILED")
	}
	n.fd.onRecovery = func(peerID int) {
		n.logger.Info().Int("self", n.selfID).Int("peer", peerID).Msg("peer marked ACTIVE")
		if n.role == Leader {
			// A recovered peer rejoins the active set (FAULT_TOLERANT); if it
			// has already acked the current term_number, its ack now counts
			// toward the majority and may satisfy a stalled commit, so
			// recheck now instead of waiting for the next heartbeat response.
			n.maybeCommit()
		}
	}
	return n, nil
}

// SetLogger overrides the node's default stderr logger, e.g. to route
// failure/recovery transitions through a shared sink.
func (n *Node) SetLogger(l zerolog.Logger) { n.logger = l }

// Initialize starts the node as a FOLLOWER with a randomized election
// timeout (§4.10 "FOLLOWER").
func (n *Node) Initialize(stage int) {
	n.selfID = n.Provider.GetID()
	n.resetElectionTimeout()
}

// HandleTimer dispatches a fired timer to its handler by name.
func (n *Node) HandleTimer(name string) {
	switch name {
	case timerElection:
		n.onElectionTimeout()
	case timerHeartbeat:
		n.onHeartbeatTick()
	case timerDiscovery:
		n.onDiscoveryTimeout()
	}
}

// HandlePacket decodes an incoming raft envelope and applies the common
// step-down rule before dispatching by message type (§4.10 "Common rule").
// Inactive nodes drop incoming messages (§4.10 "Simulation hooks").
func (n *Node) HandlePacket(message string) {
	if !n.isActive {
		return
	}
	env, err := Decode(message)
	if err != nil {
		// Only reachable for a non-JSON payload, which none of this
		// package's senders ever produce; spec's "treated as sender 0"
		// fallback doesn't apply since there's no sender_id to fall back
		// from here at all.
		return
	}

	if env.Term > n.currentTerm {
		n.stepDown(env.Term)
	}

	switch env.Type {
	case MsgRequestVote:
		n.handleRequestVote(env)
	case MsgRequestVoteResponse:
		n.handleRequestVoteResponse(env)
	case MsgAppendEntries:
		n.handleAppendEntries(env)
	case MsgAppendEntriesResponse:
		n.handleAppendEntriesResponse(env)
	case MsgDiscoveryHeartbeat:
		n.handleDiscoveryHeartbeat(env)
	case MsgDiscoveryHeartbeatResponse:
		n.handleDiscoveryHeartbeatResponse(env)
	}
}

// stepDown implements the common rule: on any message with a newer term,
// revert to FOLLOWER and clear per-term state (§4.10).
func (n *Node) stepDown(term uint64) {
	n.currentTerm = term
	n.role = Follower
	n.votedFor = nil
	n.votes = make(map[int]struct{})
	n.Provider.CancelTimer(timerHeartbeat)
	n.resetElectionTimeout()
}

// Propose is valid only on an active LEADER (§4.10 "Propose"). It type
// checks value, no-ops (success) if already committed, otherwise stages it
// and triggers an immediate AppendEntries broadcast; commit happens once a
// majority of followers ack.
func (n *Node) Propose(variable string, value any) (bool, error) {
	if !n.typeChecker.Known(variable) {
		return false, ErrUnknownConsensusVariable
	}
	if err := n.typeChecker.Check(variable, value); err != nil {
		return false, err
	}
	if n.role != Leader || !n.isActive {
		return false, nil
	}
	if committed, ok := n.committedValues[variable]; ok && equalValue(committed, value) {
		return true, nil
	}
	n.consensusValues[variable] = value
	n.termNumber++
	n.broadcastAppendEntries()
	return true, nil
}

// SetSimulationActive toggles whether this node participates in the
// cluster (§4.10 "Simulation hooks"); only affects the node whose id
// matches, consistent with it being exposed as a per-node hook driven by a
// test harness iterating over every node.
func (n *Node) SetSimulationActive(id int, on bool) {
	if id != n.selfID {
		return
	}
	if n.isActive == on {
		return
	}
	n.isActive = on
	if !on && n.role == Leader {
		n.currentTerm++
		n.role = Follower
		n.Provider.CancelTimer(timerHeartbeat)
		n.resetElectionTimeout()
	}
}

// CommittedValue returns the last committed value for variable, if any.
func (n *Node) CommittedValue(variable string) (any, bool) {
	v, ok := n.committedValues[variable]
	return v, ok
}

// CurrentRole reports the node's current role, mainly for tests/observability.
func (n *Node) CurrentRole() Role { return n.role }

// CurrentTerm reports the node's election term (§4.10, distinct from the
// replication term_number).
func (n *Node) CurrentTerm() uint64 { return n.currentTerm }

// CurrentTermNumber reports the replication round counter (§4.10, distinct
// from the election Term).
func (n *Node) CurrentTermNumber() uint64 { return n.termNumber }

// ActiveNodesSnapshot reports the node's own locally computed active-node
// set (only meaningful for a LEADER, whose failure detector is the one
// being driven by heartbeat responses).
func (n *Node) ActiveNodesSnapshot() []int { return n.fd.ActiveNodes(n.selfID) }

func (n *Node) peersExcludingSelf() []int {
	out := make([]int, 0, len(n.knownNodes))
	for _, id := range n.knownNodes {
		if id != n.selfID {
			out = append(out, id)
		}
	}
	return out
}

func (n *Node) sendToPeer(peerID int, env Envelope) {
	if !n.isActive {
		return
	}
	env.SenderID = n.selfID
	payload, err := Encode(env)
	if err != nil {
		return
	}
	n.Provider.SendCommunicationCommand(messages.NewSend(payload, peerID))
}

func (n *Node) broadcast(env Envelope) {
	if !n.isActive {
		return
	}
	env.SenderID = n.selfID
	payload, err := Encode(env)
	if err != nil {
		return
	}
	n.Provider.SendCommunicationCommand(messages.NewBroadcast(payload))
}

// randomElectionDelayMs draws uniformly from [Tmin, Tmax] (§4.10).
func (n *Node) randomElectionDelayMs() float64 {
	span := n.cfg.ElectionTimeoutMaxMs - n.cfg.ElectionTimeoutMinMs
	return n.cfg.ElectionTimeoutMinMs + n.rng.Float64()*span
}

func (n *Node) resetElectionTimeout() {
	n.Provider.CancelTimer(timerElection)
	delayMs := n.randomElectionDelayMs()
	_ = n.Provider.ScheduleTimer(timerElection, n.Provider.CurrentTime()+delayMs/1000)
}

// equalValue compares two consensus values for equality regardless of
// differing Go representations of the same JSON value (e.g. int vs
// float64), by round-tripping both through JSON.
func equalValue(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ab) == string(bb)
}
