package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/mail"
	"github.com/spec-kit/account-service/internal/service"
)

type countingMailer struct {
	mu sync.Mutex
	to []string
}

func (m *countingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, msg.To)
	return nil
}

func TestStopDrainsQueuedMail(t *testing.T) {
	dispatcher := events.NewAsyncDispatcher(zap.NewNop(), 2, 16)
	mailer := &countingMailer{}
	ns := service.NewNotificationService(dispatcher, mailer, zap.NewNop(), config.MailConfig{})

	stop := StartNotificationWorker(dispatcher, ns, zap.NewNop())
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventPasswordChanged, email,
			events.PasswordChangedPayload{Email: email, Reason: "reset"})))
	}
	stop()

	assert.ElementsMatch(t, []string{"a@x.io", "b@x.io", "c@x.io"}, mailer.to)
}

func TestStartWithoutDispatcherIsNoop(t *testing.T) {
	stop := StartNotificationWorker(nil, nil, zap.NewNop())
	assert.NotPanics(t, stop)
}
