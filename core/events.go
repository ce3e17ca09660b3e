package core

import (
	"context"
	"time"
)

// Topics
const (
	TopicStudents = "students"
	TopicCourses  = "courses"
	TopicSessions = "sessions"
	TopicRecords  = "records"
)

// Actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionStarted = "started"
	ActionStopped = "stopped"
	ActionRenewed = "renewed"
)

var AllTopics = []string{TopicStudents, TopicCourses, TopicSessions, TopicRecords}

// Event notifies observers that data changed. It carries identifiers only;
// observers reload whatever they display.
type Event struct {
	Topic  string    `json:"topic"`
	Action string    `json:"action"`
	IDs    []string  `json:"ids"`
	At     time.Time `json:"at"`
}

func NewEvent(topic, action string, ids ...string) Event {
	return Event{Topic: topic, Action: action, IDs: ids, At: time.Now().UTC()}
}

type (
	// EventBus propagates data mutations to every subscribed observer.
	EventBus interface {
		Publish(ctx context.Context, evt Event) error
		// Subscribe listens to the given topics (all topics if none is given) until the Subscription is closed.
		Subscribe(ctx context.Context, topics ...string) (Subscription, error)
		Close() error
	}

	Subscription interface {
		C() <-chan Event
		Close() error
	}
)

// Publish sends evt on bus and logs (instead of returning) any failure:
// a missed notification must never fail the write that triggered it.
func Publish(ctx context.Context, bus EventBus, logger Logger, evt Event) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, evt); err != nil && logger != nil {
		logger.Warn("publishing event", err, map[string]interface{}{"topic": evt.Topic, "action": evt.Action})
	}
}
