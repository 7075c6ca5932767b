package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"

	"clubhub/internal/model"
)

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends resolution notices to the member who filed a deletion
// request.
type Mailer struct {
	cfg  Config
	log  *zerolog.Logger
	send sendFunc
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

func (m *Mailer) SendDeletionResolved(ctx context.Context, recipientEmail string, req model.DeletionRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var subject, body string
	switch req.Status {
	case model.DeletionApproved:
		subject = "Your deletion request was approved"
		body = fmt.Sprintf("Hello,\r\n\r\nYour request #%d to delete %s %d has been approved and the record was removed.", req.ID, req.Type, req.TargetID)
	case model.DeletionDenied:
		subject = "Your deletion request was denied"
		body = fmt.Sprintf("Hello,\r\n\r\nYour request #%d to delete %s %d was denied. The record was kept.", req.ID, req.Type, req.TargetID)
	default:
		return fmt.Errorf("request %d is still %s", req.ID, req.Status)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipientEmail, subject, body,
	)

	smtpServer := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := m.send(smtpServer, auth, m.cfg.From, []string{recipientEmail}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("email", recipientEmail).Int64("request_id", req.ID).Msg("failed to send deletion notice")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("email", recipientEmail).Int64("request_id", req.ID).Str("status", string(req.Status)).Msg("deletion notice sent")
	return nil
}
