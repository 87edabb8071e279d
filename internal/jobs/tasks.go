package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

const (
	// QueueDefault is the queue reconciliation tasks are processed from.
	QueueDefault = "rbac"

	taskPrefix = "rbac:"

	maxRetry    = 3
	taskTimeout = time.Hour
)

// Payload is carried by every reconciliation task.
type Payload struct {
	RequestedBy uint64    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// TaskType returns the asynq task type running routine.
func TaskType(routine rbac.Routine) string {
	return taskPrefix + string(routine)
}

// RoutineOf returns the routine a task type runs.
func RoutineOf(taskType string) (rbac.Routine, error) {
	name, ok := strings.CutPrefix(taskType, taskPrefix)
	if !ok {
		return "", fmt.Errorf("%w: task type %q", rbac.ErrUnknownRoutine, taskType)
	}

	return rbac.ParseRoutine(name)
}

// NewTask builds the task running routine.
func NewTask(routine rbac.Routine, payload Payload) (*asynq.Task, error) {
	if _, err := rbac.ParseRoutine(string(routine)); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskType(routine), body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(taskTimeout),
	), nil
}
