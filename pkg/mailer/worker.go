package mailer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-ddd-user-registration/pkg/mailer/templates"
)

// Outcome tells the consumer loop what to do with a delivery.
type Outcome int

const (
	Ack     Outcome = iota
	Drop            // malformed job; nack without requeue
	Requeue         // transient send failure; nack with requeue
)

// Worker renders queued email jobs and hands them to a Sender.
type Worker struct {
	Sender      Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration

	// Defaults merged into Data when the job leaves them empty.
	CompanyName string
	SupportURL  string
}

func NewWorker(sender Sender, logger *logrus.Logger, companyName, supportURL string) *Worker {
	return &Worker{
		Sender:      sender,
		Logger:      logger,
		SendTimeout: 15 * time.Second,
		CompanyName: companyName,
		SupportURL:  supportURL,
	}
}

// Handle processes a single message body.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.WithError(err).Warn("bad email job")
		return Drop
	}
	if err := job.EnsureRecipient(); err != nil {
		w.Logger.WithError(err).Warn("bad email job")
		return Drop
	}
	w.applyDefaults(&job)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			w.Logger.WithError(err).WithField("template", job.Template).Error("render failed")
			return Drop
		}
		subject, text, html = s, t, h
	}

	c, cancel := context.WithTimeout(ctx, w.SendTimeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		w.Logger.WithError(err).WithField("to", job.To).Warn("send failed")
		return Requeue
	}
	w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return Ack
}

func (w *Worker) applyDefaults(job *EmailJob) {
	defaults := map[string]string{"CompanyName": w.CompanyName, "SupportURL": w.SupportURL}
	for k, v := range defaults {
		if v == "" {
			continue
		}
		if cur, ok := job.Data[k].(string); !ok || cur == "" {
			job.Data[k] = v
		}
	}
}
