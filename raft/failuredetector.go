package raft

import "sort"

// peerHealth is a peer's classification by the leader's failure detector.
type peerHealth int

const (
	healthActive peerHealth = iota
	healthFailed
)

type peerFailureState struct {
	health               peerHealth
	consecutiveFailures  int
	consecutiveSuccesses int
	lastResponseAtMs     float64
	sawFirstResponse     bool
}

// FailureDetector tracks, per known peer, whether the leader considers it
// reachable (§4.10 "Failure detection"), owned exclusively by the Node that
// created it and mutated only from that node's callbacks (§5 "the failure
// detector is owned by its Raft instance").
type FailureDetector struct {
	cfg           FailureDetectionConfig
	timeoutMs     float64
	peers         map[int]*peerFailureState
	roundsElapsed int
	onFailure     func(peerID int)
	onRecovery    func(peerID int)
}

func newFailureDetector(cfg FailureDetectionConfig, timeoutMs float64) *FailureDetector {
	return &FailureDetector{
		cfg:       cfg,
		timeoutMs: timeoutMs,
		peers:     make(map[int]*peerFailureState),
	}
}

func (fd *FailureDetector) ensure(peerID int) *peerFailureState {
	st, ok := fd.peers[peerID]
	if !ok {
		st = &peerFailureState{health: healthActive}
		fd.peers[peerID] = st
	}
	return st
}

// RecordHeartbeatSent notes that a heartbeat was sent to peerID; nowMs is
// the current simulated time in milliseconds.
func (fd *FailureDetector) RecordHeartbeatSent(peerID int, nowMs float64) {
	fd.ensure(peerID)
}

// RecordResponse records an AppendEntriesResponse (success or failure) from
// peerID, updating its consecutive counters (§4.10).
func (fd *FailureDetector) RecordResponse(peerID int, success bool, nowMs float64) {
	st := fd.ensure(peerID)
	st.sawFirstResponse = true
	st.lastResponseAtMs = nowMs
	if success {
		st.consecutiveSuccesses++
		st.consecutiveFailures = 0
	} else {
		st.consecutiveFailures++
		st.consecutiveSuccesses = 0
	}
}

// CompleteRound advances the heartbeat round counter and, every
// DetectionInterval rounds, sweeps every known peer for implicit timeouts
// and re-evaluates FAILED/ACTIVE transitions (§4.10).
func (fd *FailureDetector) CompleteRound(nowMs float64) {
	fd.roundsElapsed++
	if fd.roundsElapsed < fd.cfg.DetectionInterval {
		return
	}
	fd.roundsElapsed = 0
	fd.sweep(nowMs)
}

func (fd *FailureDetector) sweep(nowMs float64) {
	for id, st := range fd.peers {
		if st.sawFirstResponse && nowMs-st.lastResponseAtMs > fd.timeoutMs {
			st.consecutiveFailures++
			st.consecutiveSuccesses = 0
		}

		switch {
		case st.consecutiveFailures >= fd.cfg.FailureThreshold && st.health != healthFailed:
			st.health = healthFailed
			if fd.onFailure != nil {
				fd.onFailure(id)
			}
		case st.consecutiveSuccesses >= fd.cfg.RecoveryThreshold && st.health != healthActive:
			st.health = healthActive
			if fd.onRecovery != nil {
				fd.onRecovery(id)
			}
		}
	}
}

// ActiveNodes returns every peer considered reachable, plus selfID, sorted
// ascending (§4.10 "always including self"). A peer is tracked from the
// first heartbeat sent to it and counts as active until a sweep marks it
// FAILED; a peer that has not yet been sent a heartbeat is not listed.
func (fd *FailureDetector) ActiveNodes(selfID int) []int {
	ids := []int{selfID}
	for id, st := range fd.peers {
		if st.health == healthActive {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
