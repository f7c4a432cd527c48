package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"cog_mailing_sync/platform/validator"
)

const TaskParcelReconcile = "parcel.reconcile"

type ParcelReconcilePayload struct {
	ParcelID string `json:"parcelId"`
}

func NewParcelReconcileTask(payload ParcelReconcilePayload) (*asynq.Task, error) {
	if !validator.ParcelID(payload.ParcelID) {
		return nil, fmt.Errorf("invalid parcel id %q", payload.ParcelID)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskParcelReconcile, data), nil
}

func ParseParcelReconcilePayload(task *asynq.Task) (ParcelReconcilePayload, error) {
	var payload ParcelReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ParcelReconcilePayload{}, err
	}
	return payload, nil
}
