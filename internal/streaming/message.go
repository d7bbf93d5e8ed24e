package streaming

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aavetx/internal/domain"
)

type MessageType string

const (
	MessageTypeResolved MessageType = "lookup.resolved"
	MessageTypeNotFound MessageType = "lookup.not_found"
)

// LookupEvent is published once per finished lookup.
type LookupEvent struct {
	Type         MessageType `json:"type"`
	LookupID     string      `json:"lookup_id"`
	TraceID      string      `json:"trace_id,omitempty"`
	TxHash       string      `json:"tx_hash"`
	Chain        string      `json:"chain,omitempty"`
	RowCount     int         `json:"row_count,omitempty"`
	ProbeCount   int         `json:"probe_count"`
	FailedChains int         `json:"failed_chains,omitempty"`
	RequestedAt  time.Time   `json:"requested_at"`
	ElapsedMS    int64       `json:"elapsed_ms"`
}

func EventFromRecord(record domain.LookupRecord, traceID string) LookupEvent {
	msgType := MessageTypeNotFound
	if record.Found {
		msgType = MessageTypeResolved
	}
	return LookupEvent{
		Type:         msgType,
		LookupID:     record.ID.String(),
		TraceID:      traceID,
		TxHash:       record.Hash,
		Chain:        string(record.Chain),
		RowCount:     record.RowCount,
		ProbeCount:   record.ProbeCount,
		FailedChains: record.FailedChains,
		RequestedAt:  record.RequestedAt.UTC(),
		ElapsedMS:    record.Elapsed.Milliseconds(),
	}
}

func Encode(msg LookupEvent) ([]byte, error) {
	if err := validate(msg); err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func Decode(payload []byte) (LookupEvent, error) {
	var msg LookupEvent
	if err := json.Unmarshal(payload, &msg); err != nil {
		return LookupEvent{}, err
	}
	if err := validate(msg); err != nil {
		return LookupEvent{}, err
	}
	return msg, nil
}

func validate(msg LookupEvent) error {
	switch msg.Type {
	case MessageTypeResolved:
		if msg.Chain == "" {
			return errors.New("chain is required for resolved lookups")
		}
	case MessageTypeNotFound:
	case "":
		return errors.New("message type is required")
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	if msg.TxHash == "" {
		return errors.New("tx_hash is required")
	}
	if msg.LookupID == "" {
		return errors.New("lookup_id is required")
	}
	return nil
}
