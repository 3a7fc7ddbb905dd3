package raft

// handleAppendEntries implements the FOLLOWER reaction to a leader's
// heartbeat/replication message (§4.10 "FOLLOWER").
func (n *Node) handleAppendEntries(env Envelope) {
	if env.Term < n.currentTerm {
		n.sendToPeer(env.SenderID, Envelope{Type: MsgAppendEntriesResponse, Term: n.currentTerm, Success: false, FollowerID: n.selfID})
		return
	}
	if n.role != Follower {
		n.role = Follower
		n.Provider.CancelTimer(timerHeartbeat)
	}

	leader := env.LeaderID
	n.leaderID = &leader

	if env.TermNumber > n.termNumber {
		for k, v := range env.ConsensusValues {
			n.committedValues[k] = v
		}
		n.termNumber = env.TermNumber
	}

	if env.ActiveNodesCount != nil {
		n.activeCache = activeNodesCache{
			count: *env.ActiveNodesCount,
			list:  env.ActiveNodesList,
			at:    n.Provider.CurrentTime(),
			set:   true,
		}
	}

	n.resetElectionTimeout()
	n.sendToPeer(env.SenderID, Envelope{Type: MsgAppendEntriesResponse, Term: n.currentTerm, Success: true, FollowerID: n.selfID, TermNumber: env.TermNumber})
}

// handleAppendEntriesResponse implements the LEADER reaction to a
// follower's ack/nack (§4.10 "LEADER").
func (n *Node) handleAppendEntriesResponse(env Envelope) {
	if n.role != Leader || env.Term != n.currentTerm {
		return
	}
	now := n.Provider.CurrentTime() * 1000

	if env.Success {
		if env.TermNumber > n.matchIndex[env.FollowerID] {
			n.matchIndex[env.FollowerID] = env.TermNumber
		}
		n.fd.RecordResponse(env.FollowerID, true, now)
		n.maybeCommit()
		return
	}

	idx := n.replicationIndex[env.FollowerID]
	if idx > 1 {
		idx--
	} else {
		idx = 1
	}
	n.replicationIndex[env.FollowerID] = idx
	n.fd.RecordResponse(env.FollowerID, false, now)
}

// scheduleHeartbeat arms the next heartbeat tick (§4.10).
func (n *Node) scheduleHeartbeat() {
	n.Provider.CancelTimer(timerHeartbeat)
	_ = n.Provider.ScheduleTimer(timerHeartbeat, n.Provider.CurrentTime()+n.cfg.HeartbeatIntervalMs/1000)
}

// onHeartbeatTick broadcasts AppendEntries, drives the failure detector's
// round bookkeeping, and reschedules itself (§4.10 "Each heartbeat tick").
func (n *Node) onHeartbeatTick() {
	if n.role != Leader {
		return
	}
	n.broadcastAppendEntries()
	n.fd.CompleteRound(n.Provider.CurrentTime() * 1000)
	n.scheduleHeartbeat()
}

// broadcastAppendEntries sends the leader's current state to every known
// peer, including the locally computed active-nodes set (§4.10).
func (n *Node) broadcastAppendEntries() {
	activeIDs := n.fd.ActiveNodes(n.selfID)
	count := len(activeIDs)

	values := make(map[string]any, len(n.consensusValues))
	for k, v := range n.consensusValues {
		values[k] = v
	}

	n.broadcast(Envelope{
		Type:             MsgAppendEntries,
		Term:             n.currentTerm,
		LeaderID:         n.selfID,
		ConsensusValues:  values,
		TermNumber:       n.termNumber,
		ActiveNodesCount: &count,
		ActiveNodesList:  activeIDs,
	})

	now := n.Provider.CurrentTime() * 1000
	for _, id := range n.peersExcludingSelf() {
		n.fd.RecordHeartbeatSent(id, now)
	}
}

// maybeCommit moves staged consensus_values into committed_values once a
// majority of the applicable active set has acked the current term_number
// (§4.10 "On AppendEntriesResponse..."). Every committed change is also
// recorded via TrackedVariables, the plugin's only "committed" log sink
// (§9 "observable tracked-variables mapping").
func (n *Node) maybeCommit() {
	if len(n.consensusValues) == 0 {
		return
	}

	activeSet := n.commitActiveSet()
	acked := 1 // leader acks itself implicitly
	for _, id := range activeSet {
		if id == n.selfID {
			continue
		}
		if n.matchIndex[id] >= n.termNumber {
			acked++
		}
	}
	threshold := len(activeSet)/2 + 1
	if acked < threshold {
		return
	}

	for k, v := range n.consensusValues {
		old, had := n.committedValues[k]
		if !had || !equalValue(old, v) {
			n.committedValues[k] = v
			if n.Provider != nil {
				n.Provider.TrackedVariables().Set(k, v)
			}
		}
	}
	n.consensusValues = make(map[string]any)
}

// commitActiveSet is the denominator used for committing, as opposed to
// majorityDenominator which governs election votes: CLASSIC always uses
// every known node, FAULT_TOLERANT uses the leader's own locally computed
// active set (§4.10 "a leader may commit only when its active-node set has
// a majority that acked the current term_number").
func (n *Node) commitActiveSet() []int {
	if n.cfg.Mode == Classic {
		return n.knownNodes
	}
	return n.fd.ActiveNodes(n.selfID)
}
