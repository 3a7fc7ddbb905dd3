package raft

import "encoding/json"

// MessageType tags the JSON envelope's top-level `type` field (§4.10,
// §6 "Communication wire").
type MessageType string

const (
	MsgRequestVote                MessageType = "REQUEST_VOTE"
	MsgRequestVoteResponse        MessageType = "REQUEST_VOTE_RESPONSE"
	MsgAppendEntries              MessageType = "APPEND_ENTRIES"
	MsgAppendEntriesResponse      MessageType = "APPEND_ENTRIES_RESPONSE"
	MsgDiscoveryHeartbeat         MessageType = "DISCOVERY_HEARTBEAT"
	MsgDiscoveryHeartbeatResponse MessageType = "DISCOVERY_HEARTBEAT_RESPONSE"
)

// Envelope is the JSON object carried as the string payload of every
// CommunicationCommand the plugin sends (§6): every message carries `type`,
// `term`, and `sender_id`; the remaining fields are populated per message
// kind and omitted otherwise.
type Envelope struct {
	Type     MessageType `json:"type"`
	Term     uint64      `json:"term"`
	SenderID int         `json:"sender_id"`

	CandidateID int  `json:"candidate_id,omitempty"`
	Granted     bool `json:"granted,omitempty"`
	VoterID     int  `json:"voter_id,omitempty"`

	LeaderID         int            `json:"leader_id,omitempty"`
	ConsensusValues  map[string]any `json:"consensus_values,omitempty"`
	TermNumber       uint64         `json:"term_number,omitempty"`
	ActiveNodesCount *int           `json:"active_nodes_count,omitempty"`
	ActiveNodesList  []int          `json:"active_nodes_list,omitempty"`

	Success    bool `json:"success,omitempty"`
	FollowerID int  `json:"follower_id,omitempty"`

	DiscovererID int `json:"discoverer_id,omitempty"`
	ResponderID  int `json:"responder_id,omitempty"`
}

// Encode serializes env as JSON, the wire format every raft message uses
// over the simulated communication channel (§6).
func Encode(env Envelope) (string, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a received payload. A payload that isn't a valid JSON
// object whose sender_id can be extracted is reported with SenderID left at
// its zero value (§4.10 "Incoming messages whose sender_id cannot be
// extracted are treated as sender 0").
func Decode(payload string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
