package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskSessionCleanup removes expired login sessions.
	TaskSessionCleanup = "auth:session-cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// SessionCleanupPayload carries scheduling metadata.
type SessionCleanupPayload struct {
	Reason string `json:"reason"`
}

// NewSessionCleanupTask constructs the cleanup task registered with the
// scheduler.
func NewSessionCleanupTask(reason string) (*asynq.Task, error) {
	body, err := json.Marshal(SessionCleanupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionCleanup, body, asynq.Queue(QueueDefault)), nil
}

// WelcomeEmail renders the message sent to a new account.
func WelcomeEmail(user users.User) SendEmailPayload {
	return SendEmailPayload{
		To:      user.Email,
		Subject: "Welcome to TrainHub",
		Body: fmt.Sprintf("Hello %s,\r\n\r\nYour %s account is ready. Sign in with %s.\r\n",
			user.Name, user.Role, user.Email),
	}
}
