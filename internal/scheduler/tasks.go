package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskRetrainModel = "scoring.model.retrain"

type RetrainPayload struct {
	OrganizationID string `json:"organizationId"`
}

func NewRetrainTask(payload RetrainPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRetrainModel, data), nil
}

func ParseRetrainPayload(task *asynq.Task) (RetrainPayload, error) {
	var payload RetrainPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RetrainPayload{}, err
	}
	return payload, nil
}

// OrganizationUUID parses the payload's organization id.
func (p RetrainPayload) OrganizationUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(p.OrganizationID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid organization id %q: %w", p.OrganizationID, err)
	}
	return id, nil
}

func retrainTaskID(organizationID uuid.UUID) string {
	return "retrain:" + organizationID.String()
}
