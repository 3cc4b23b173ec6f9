package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-user-registration/pkg/mailer/templates"
)

type capturePublisher struct {
	bodies []any
	err    error
}

func (c *capturePublisher) PublishJSON(ctx context.Context, body any) error {
	c.bodies = append(c.bodies, body)
	return c.err
}

func TestWelcomeEmail_QueuesTemplateJob(t *testing.T) {
	pub := &capturePublisher{}
	hook := NewWelcomeEmail(pub, "user-registration", "Acme", "https://acme.test/help")

	err := hook.UserCreated(context.Background(), &entity.User{
		ID: 1, Name: "Bruno", Email: "bruno@x.com", Password: "$argon2id$secret", RoleID: 1,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, pub.bodies, 1)

	job, ok := pub.bodies[0].(mailer.EmailJob)
	require.True(t, ok)
	assert.Equal(t, "bruno@x.com", job.To)
	assert.Equal(t, mailtpl.Welcome, job.Template)
	assert.Equal(t, "Bruno", job.Data["Name"])
	assert.Equal(t, "Acme", job.Data["CompanyName"])
	for _, v := range job.Data {
		assert.NotEqual(t, "$argon2id$secret", v, "the hash never leaves the service")
	}

	// the job must render in the worker
	_, _, _, err = mailtpl.Render(job.Template, job.Data)
	assert.NoError(t, err)
}

func TestWelcomeEmail_PropagatesPublishError(t *testing.T) {
	pub := &capturePublisher{err: errors.New("channel closed")}
	err := NewWelcomeEmail(pub, "", "", "").UserCreated(context.Background(), &entity.User{Email: "a@x.com"})
	assert.EqualError(t, err, "channel closed")
}
