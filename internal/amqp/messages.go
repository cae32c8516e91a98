package amqp

import (
	"encoding/json"
	"time"
)

// ActivityEvent announces a new audit log entry. It carries only the entry
// id and routing hints; consumers read the full row from the database.
type ActivityEvent struct {
	ActivityID int64     `json:"activity_id"`
	EntityName string    `json:"entity_name"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewActivityEvent(activityID int64, entityName, action string) *ActivityEvent {
	return &ActivityEvent{
		ActivityID: activityID,
		EntityName: entityName,
		Action:     action,
		Timestamp:  time.Now(),
	}
}

func (m *ActivityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ActivityEventFromJSON(data []byte) (*ActivityEvent, error) {
	var msg ActivityEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
