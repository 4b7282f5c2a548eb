package accounts

import (
	"context"
	"strings"
)

// ActivationLinkBuilder renders the frontend URL the recipient follows to
// confirm their address.
type ActivationLinkBuilder struct {
	BaseURL string
}

// NewActivationLinkBuilder normalizes the configured frontend origin
func NewActivationLinkBuilder(baseURL string) ActivationLinkBuilder {
	return ActivationLinkBuilder{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Build produces `<base>/activation?key=<key>`
func (b ActivationLinkBuilder) Build(key string) string {
	return b.BaseURL + "/activation?key=" + key
}

// LoggerMailer is the development Mailer: it logs the activation link
// instead of dispatching it and always reports the message as accepted.
type LoggerMailer struct {
	logger Logger
}

var _ Mailer = (*LoggerMailer)(nil)

func NewLoggerMailer(logger Logger) *LoggerMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LoggerMailer{logger: logger}
}

func (m *LoggerMailer) SendActivation(_ context.Context, email, link string) (bool, error) {
	m.logger.Info("activation email", "to", email, "link", link)
	return true, nil
}
