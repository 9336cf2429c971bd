package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOutboxEventDue = "outbox.event_due"

type OutboxEventDuePayload struct {
	OutboxID       string `json:"outboxId"`
	ReassessmentID string `json:"reassessmentId"`
}

func NewOutboxEventDueTask(payload OutboxEventDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutboxEventDue, data), nil
}

func ParseOutboxEventDuePayload(task *asynq.Task) (OutboxEventDuePayload, error) {
	var payload OutboxEventDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutboxEventDuePayload{}, err
	}
	return payload, nil
}
