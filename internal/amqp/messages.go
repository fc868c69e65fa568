package amqp

import (
	"encoding/json"
	"time"
)

// RecordEvent announces a change to a ledger record. It is deliberately
// lightweight: consumers re-read the record from storage, so the event only
// needs to say what changed and for whom.
type RecordEvent struct {
	Kind      string    `json:"kind"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(kind, action string, id, userID int64) *RecordEvent {
	return &RecordEvent{
		Kind:      kind,
		Action:    action,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
