package raft

// onElectionTimeout fires when no AppendEntries/grant has reset the
// election timer in time (§4.10). In FAULT_TOLERANT mode, a stale
// active-nodes cache triggers a discovery round before the real election;
// CLASSIC always elects directly.
func (n *Node) onElectionTimeout() {
	if n.role == Leader {
		return
	}
	if n.cfg.Mode == FaultTolerant && n.activeCacheStale() {
		n.beginDiscovery()
		return
	}
	n.beginElection(nil)
}

// activeCacheStale reports whether the cached leader-shared active count is
// missing or older than 5 heartbeat intervals (§4.10 "Pre-election").
func (n *Node) activeCacheStale() bool {
	if !n.activeCache.set {
		return true
	}
	age := n.Provider.CurrentTime() - n.activeCache.at
	return age*1000 >= 5*n.cfg.HeartbeatIntervalMs
}

// beginDiscovery broadcasts a DiscoveryHeartbeat and waits one fresh random
// timeout for responses before transitioning into the real election
// (§4.10 "Pre-election").
func (n *Node) beginDiscovery() {
	n.discovering = true
	n.discoveryResponses = make(map[int]struct{})
	n.broadcast(Envelope{Type: MsgDiscoveryHeartbeat, Term: n.currentTerm, DiscovererID: n.selfID})

	n.Provider.CancelTimer(timerDiscovery)
	delayMs := n.randomElectionDelayMs()
	_ = n.Provider.ScheduleTimer(timerDiscovery, n.Provider.CurrentTime()+delayMs/1000)
}

func (n *Node) handleDiscoveryHeartbeat(env Envelope) {
	n.sendToPeer(env.SenderID, Envelope{Type: MsgDiscoveryHeartbeatResponse, Term: n.currentTerm, ResponderID: n.selfID})
}

func (n *Node) handleDiscoveryHeartbeatResponse(env Envelope) {
	if !n.discovering {
		return
	}
	n.discoveryResponses[env.ResponderID] = struct{}{}
}

// onDiscoveryTimeout closes the discovery window and starts the real
// election using the discovered count as the majority denominator (§4.10).
func (n *Node) onDiscoveryTimeout() {
	if !n.discovering {
		return
	}
	n.discovering = false
	count := len(n.discoveryResponses) + 1 // +1 for self
	n.beginElection(&count)
}

// beginElection transitions to CANDIDATE, votes for self, and broadcasts
// RequestVote to the cluster (§4.10 "CANDIDATE / election").
func (n *Node) beginElection(discoveredActiveCount *int) {
	n.currentTerm++
	n.role = Candidate
	self := n.selfID
	n.votedFor = &self
	n.votes = map[int]struct{}{self: {}}
	n.leaderID = nil
	n.discoveredActiveCnt = discoveredActiveCount

	n.resetElectionTimeout()
	n.broadcast(Envelope{Type: MsgRequestVote, Term: n.currentTerm, CandidateID: self})

	if len(n.votes) >= n.majorityThreshold() {
		n.becomeLeader()
	}
}

func (n *Node) handleRequestVote(env Envelope) {
	if env.Term < n.currentTerm {
		n.sendToPeer(env.SenderID, Envelope{Type: MsgRequestVoteResponse, Term: n.currentTerm, Granted: false, VoterID: n.selfID})
		return
	}
	grant := env.Term == n.currentTerm && (n.votedFor == nil || *n.votedFor == env.CandidateID)
	if grant {
		candidate := env.CandidateID
		n.votedFor = &candidate
		n.resetElectionTimeout()
	}
	n.sendToPeer(env.SenderID, Envelope{Type: MsgRequestVoteResponse, Term: n.currentTerm, Granted: grant, VoterID: n.selfID})
}

func (n *Node) handleRequestVoteResponse(env Envelope) {
	if n.role != Candidate || env.Term != n.currentTerm || !env.Granted {
		return
	}
	n.votes[env.VoterID] = struct{}{}
	if len(n.votes) >= n.majorityThreshold() {
		n.becomeLeader()
	}
}

// becomeLeader transitions to LEADER: cancels the election timer, clears
// stale active-count caches, sends an initial AppendEntries, and arms the
// heartbeat ticker (§4.10 "LEADER").
func (n *Node) becomeLeader() {
	if n.role == Leader {
		return
	}
	n.role = Leader
	self := n.selfID
	n.leaderID = &self
	n.Provider.CancelTimer(timerElection)
	n.Provider.CancelTimer(timerDiscovery)

	n.activeCache = activeNodesCache{}
	n.matchIndex = make(map[int]uint64)
	n.replicationIndex = make(map[int]int)

	n.broadcastAppendEntries()
	n.scheduleHeartbeat()
}

// majorityDenominator computes N, the applicable denominator for the
// current majority check (§4.10 "Majority denominator").
func (n *Node) majorityDenominator() int {
	if n.cfg.Mode == Classic {
		return len(n.knownNodes)
	}
	if n.role == Candidate && n.discoveredActiveCnt != nil {
		return *n.discoveredActiveCnt
	}
	if n.activeCache.set && !n.activeCacheStale() {
		if n.activeCache.count <= 2 {
			return len(n.fd.ActiveNodes(n.selfID))
		}
		return n.activeCache.count
	}
	return len(n.knownNodes)
}

func (n *Node) majorityThreshold() int {
	return n.majorityDenominator()/2 + 1
}
