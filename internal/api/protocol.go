// Package api implements the bidirectional JSON control channel of
// spec §6 on top of gin (HTTP routing) and gorilla/websocket
// (transport), adapted from the teacher's broadcast Hub into a
// per-connection Session that both receives commands and streams
// progress back.
package api

import "encoding/json"

// ClientMessage is the wire shape of every client→server message. Type
// selects which optional fields are meaningful, the Go-idiomatic
// equivalent of the reference server's
// #[serde(tag = "type")] enum ClientMessage.
type ClientMessage struct {
	Type string `json:"type"`

	Prefix           string   `json:"prefix,omitempty"`
	ModulesBase64    []string `json:"modules_base64,omitempty"`
	SplitAmounts     []uint64 `json:"split_amounts,omitempty"`
	Sender           string   `json:"sender,omitempty"`
	GasBudget        uint64   `json:"gas_budget,omitempty"`
	GasPrice         uint64   `json:"gas_price,omitempty"`
	GasObjectID      string   `json:"gas_object_id,omitempty"`
	GasObjectVersion uint64   `json:"gas_object_version,omitempty"`
	GasObjectDigest  string   `json:"gas_object_digest,omitempty"`
	ObjectIndex      uint16   `json:"object_index,omitempty"`
	Threads          int      `json:"threads,omitempty"`
	NonceOffset      int      `json:"nonce_offset,omitempty"`
}

// Client message type tags, matching spec §6 verbatim.
const (
	TypeStartPackageMining = "start_package_mining"
	TypeStartGasCoinMining = "start_gas_coin_mining"
	// TypeStartObjectMining is supplemental: spec §2 notes a generic call
	// may place a desired object at a known index, and Mode's third
	// variant (SingleIndex) exists specifically to serve it.
	TypeStartObjectMining  = "start_object_mining"
	TypeStartAddressMining = "start_address_mining"
	TypeStopMining         = "stop_mining"
)

// ServerMessage is the wire shape of every server→client message.
// Type selects which fields are populated; this mirrors the reference
// server's tagged ServerMessage enum with one flat struct plus
// omitempty, rather than a Go interface hierarchy, since every variant
// here is a plain data record with no shared behavior.
type ServerMessage struct {
	Type string `json:"type"`

	Version string `json:"version,omitempty"`

	Mode              string `json:"mode,omitempty"`
	Prefix            string `json:"prefix,omitempty"`
	Difficulty        int    `json:"difficulty,omitempty"`
	EstimatedAttempts uint64 `json:"estimated_attempts,omitempty"`
	Threads           int    `json:"threads,omitempty"`

	Attempts  uint64  `json:"attempts,omitempty"`
	Hashrate  float64 `json:"hashrate,omitempty"`
	LastNonce uint64  `json:"last_nonce,omitempty"`

	PackageID     string `json:"package_id,omitempty"`
	ObjectID      string `json:"object_id,omitempty"`
	ObjectIndex   uint16 `json:"object_index,omitempty"`
	TxDigest      string `json:"tx_digest,omitempty"`
	TxBytesBase64 string `json:"tx_bytes_base64,omitempty"`
	GasBudgetUsed uint64 `json:"gas_budget_used,omitempty"`

	Address    string `json:"address,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	PublicKey  string `json:"public_key,omitempty"`

	Message string `json:"message,omitempty"`
}

// Server message type tags, matching spec §6 verbatim.
const (
	TypeConnected     = "connected"
	TypeMiningStarted = "mining_started"
	TypeProgress      = "progress"
	TypePackageFound  = "package_found"
	TypeGasCoinFound  = "gas_coin_found"
	TypeAddressFound  = "address_found"
	TypeStopped       = "stopped"
	TypeError         = "error"
)

// decodeClientMessage is the two-pass decode: first extract Type alone
// so the caller can dispatch, then unmarshal the full payload. It is
// split out mainly so tests can exercise malformed-payload handling
// without standing up a websocket connection.
func decodeClientMessage(raw []byte) (ClientMessage, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ClientMessage{}, err
	}
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, err
	}
	msg.Type = probe.Type
	return msg, nil
}
