package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	jobmetrics "github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/jobs"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingMailer struct {
	sent []SendEmailPayload
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg SendEmailPayload) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestSendEmailJob(t *testing.T) {
	mailer := &recordingMailer{}
	job := NewSendEmailJob(mailer, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewSendEmailTask(SendEmailPayload{To: "a@trainhub.io", Subject: "Hi", Body: "hello"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@trainhub.io", mailer.sent[0].To)
}

func TestSendEmailJobSkipsBadPayload(t *testing.T) {
	job := NewSendEmailJob(&recordingMailer{}, discard, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewSendEmailTask(SendEmailPayload{Subject: "no recipient"})
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestSendEmailJobRetriesOnMailerFailure(t *testing.T) {
	job := NewSendEmailJob(&recordingMailer{err: errors.New("relay down")}, discard, nil)
	task, err := NewSendEmailTask(SendEmailPayload{To: "a@trainhub.io"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

type purgerStub struct {
	n   int64
	err error
}

func (p purgerStub) PurgeExpiredSessions(context.Context) (int64, error) { return p.n, p.err }

func TestSessionCleanupJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	task, err := NewSessionCleanupTask("hourly")
	require.NoError(t, err)

	require.NoError(t, NewSessionCleanupJob(purgerStub{n: 4}, discard, metrics).Handle(context.Background(), task))
	assert.Error(t, NewSessionCleanupJob(purgerStub{err: errors.New("db down")}, discard, metrics).Handle(context.Background(), task))

	count, err := testutil.GatherAndCount(reg, "trainhub_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "mail", Port: 1025, From: "no-reply@trainhub.local"})
	var raw bytes.Buffer
	mailer.send = func(_ context.Context, msg *mail.Msg) error {
		_, err := msg.WriteTo(&raw)
		return err
	}

	require.NoError(t, mailer.Send(context.Background(), SendEmailPayload{To: "t@trainhub.io", Subject: "Bienvenue à TrainHub", Body: "hello"}))
	headers, body, ok := strings.Cut(raw.String(), "\r\n\r\n")
	require.True(t, ok, raw.String())

	assert.Regexp(t, `(?m)^From: <no-reply@trainhub\.local>\r$`, headers)
	assert.Regexp(t, `(?m)^To: <t@trainhub\.io>\r$`, headers)
	assert.Regexp(t, `(?m)^Subject: =\?UTF-8\?`, headers)
	assert.NotContains(t, headers, "à")
	assert.Regexp(t, `(?m)^Date: `, headers)
	assert.Regexp(t, `(?m)^Message-ID: <.+>\r$`, headers)
	assert.Contains(t, body, "hello")

	err := mailer.Send(context.Background(), SendEmailPayload{To: "t@trainhub.io", Subject: "x\r\nBcc: evil@example.com"})
	assert.Error(t, err)
	err = mailer.Send(context.Background(), SendEmailPayload{To: "not an address", Subject: "x"})
	assert.Error(t, err)
}

func TestTLSPolicyNames(t *testing.T) {
	assert.Equal(t, mail.TLSMandatory, tlsPolicy("mandatory"))
	assert.Equal(t, mail.NoTLS, tlsPolicy("none"))
	assert.Equal(t, mail.TLSOpportunistic, tlsPolicy("opportunistic"))
	assert.Equal(t, mail.TLSOpportunistic, tlsPolicy(""))
}

type enqueuerStub struct {
	tasks []*asynq.Task
}

func (e *enqueuerStub) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (e *enqueuerStub) Close() error { return nil }

func TestClientWelcomeUser(t *testing.T) {
	stub := &enqueuerStub{}
	var notifier users.Notifier = NewClientWith(stub)

	err := notifier.WelcomeUser(context.Background(), users.User{ID: 3, Name: "Lina", Email: "lina@trainhub.io", Role: authz.RoleTrainee})
	require.NoError(t, err)
	require.Len(t, stub.tasks, 1)
	assert.Equal(t, TaskTypeSendEmail, stub.tasks[0].Type())

	var payload SendEmailPayload
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &payload))
	assert.Equal(t, "lina@trainhub.io", payload.To)
	assert.Contains(t, payload.Body, "Lina")
	assert.Contains(t, payload.Body, "trainee")
}

type inspectorStub struct {
	info *asynq.QueueInfo
	err  error
}

func (i inspectorStub) GetQueueInfo(string) (*asynq.QueueInfo, error) { return i.info, i.err }

func TestHealthEndpoint(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   int
	}{
		{"no inspector", nil, http.StatusOK, 0},
		{"queue info", inspectorStub{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 7}}, http.StatusOK, 7},
		{"redis down", inspectorStub{err: errors.New("dial tcp")}, http.StatusServiceUnavailable, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, discard).MountRoutes)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			require.Equal(t, tc.status, rr.Code)
			if tc.status != http.StatusOK {
				return
			}
			var body queueHealth
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.pending, body.Pending)
		})
	}
}
