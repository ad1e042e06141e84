package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventAction discriminates the two export events sharing the queue.
type EventAction string

const (
	ActionSync   EventAction = "sync"
	ActionDelete EventAction = "delete"
)

// TransactionEvent is the wire format for export events. It carries only the
// transaction ID; the worker loads the full row from the database so it
// always exports the freshest state.
type TransactionEvent struct {
	Action    EventAction `json:"action"`
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewSyncEvent(id int64) *TransactionEvent {
	return &TransactionEvent{Action: ActionSync, ID: id, Timestamp: time.Now()}
}

func NewDeleteEvent(id int64) *TransactionEvent {
	return &TransactionEvent{Action: ActionDelete, ID: id, Timestamp: time.Now()}
}

func (e *TransactionEvent) Validate() error {
	if e.Action != ActionSync && e.Action != ActionDelete {
		return fmt.Errorf("unknown event action %q", e.Action)
	}
	if e.ID <= 0 {
		return fmt.Errorf("invalid transaction id %d", e.ID)
	}
	return nil
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
