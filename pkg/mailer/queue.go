package mailer

import (
	"context"
	"time"

	"github.com/radityabs/huddle-backend/config"
	"github.com/radityabs/huddle-backend/pkg/helpers"
	tpl "github.com/radityabs/huddle-backend/pkg/mailer/templates"
)

// Queue enqueues EmailJobs on RabbitMQ for the email worker. It implements
// the orchestrator's VerificationMailer collaborator.
type Queue struct {
	Pub *helpers.RabbitPublisher
	Cfg *config.Config
}

func NewQueue(pub *helpers.RabbitPublisher, cfg *config.Config) *Queue {
	return &Queue{Pub: pub, Cfg: cfg}
}

func (q *Queue) enabled() bool {
	return q != nil && q.Pub != nil && q.Cfg != nil && q.Cfg.MailSendEnabled
}

func (q *Queue) base(name string) tpl.EmailData {
	return tpl.EmailData{
		Name:        name,
		CompanyName: q.Cfg.CompanyName,
		AppName:     q.Cfg.AppName,
		LogoURL:     q.Cfg.LogoURL,
		SupportURL:  q.Cfg.SupportURL,
	}
}

func (q *Queue) SendVerification(ctx context.Context, to, name, token string, expiresAt time.Time) error {
	if !q.enabled() {
		return nil
	}
	data := q.base(name)
	data.Email = to
	data.Type = tpl.VerifyEmail
	data.VerifyURL = q.Cfg.VerifyEmailURL + "/" + token
	data.ExpiresAt = expiresAt.UTC()
	data.ExpiresAtText = expiresAt.UTC().Format("02 January 2006, 15:04 MST")

	job := EmailJob{To: to, Template: tpl.VerifyEmail, Data: tpl.ToMap(data)}
	return q.Pub.PublishJSON(ctx, job)
}

func (q *Queue) SendLoginAlert(ctx context.Context, to, name, ip, userAgent string, at time.Time) error {
	if !q.enabled() {
		return nil
	}
	data := q.base(name)
	data.Email = to
	data.Type = tpl.LoginAlert
	data.IP = ip
	data.UserAgent = userAgent
	data.Time = at.UTC().Format("02 January 2006, 15:04")

	job := EmailJob{To: to, Template: tpl.LoginAlert, Data: tpl.ToMap(data)}
	return q.Pub.PublishJSON(ctx, job)
}
