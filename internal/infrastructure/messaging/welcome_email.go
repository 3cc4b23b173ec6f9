package messaging

import (
	"context"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-registration/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-user-registration/pkg/mailer/templates"
)

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// WelcomeEmail queues a welcome email for every newly created user.
type WelcomeEmail struct {
	Publisher   JSONPublisher
	AppName     string
	CompanyName string
	SupportURL  string
}

func NewWelcomeEmail(pub JSONPublisher, appName, companyName, supportURL string) *WelcomeEmail {
	return &WelcomeEmail{Publisher: pub, AppName: appName, CompanyName: companyName, SupportURL: supportURL}
}

func (w *WelcomeEmail) UserCreated(ctx context.Context, u *entity.User) error {
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Welcome,
		Data: mailtpl.ToMap(mailtpl.EmailData{
			Name:           u.Name,
			Email:          u.Email,
			RecipientEmail: u.Email,
			CompanyName:    w.CompanyName,
			AppName:        w.AppName,
			SupportURL:     w.SupportURL,
			RegisteredAt:   u.CreatedAt.UTC(),
		}),
	}
	return w.Publisher.PublishJSON(ctx, job)
}
