package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeOrderConfirmation is the task type for post-checkout confirmations.
	TaskTypeOrderConfirmation = "order:confirmation"
)

// OrderConfirmationPayload describes a freshly placed order.
type OrderConfirmationPayload struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Email       string  `json:"email"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
}

// NewOrderConfirmationTask constructs an Asynq task.
func NewOrderConfirmationTask(payload OrderConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOrderConfirmation, data, asynq.Queue(QueueDefault)), nil
}

// HandleOrderConfirmationTask processes TaskTypeOrderConfirmation tasks.
func HandleOrderConfirmationTask(ctx context.Context, t *asynq.Task) error {
	var payload OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP once the mail provider is chosen.
	fmt.Printf("[jobs] order confirmation to %s order=%s total=%.2f %s\n",
		payload.Email, payload.OrderNumber, payload.TotalAmount, payload.Currency)
	return nil
}
