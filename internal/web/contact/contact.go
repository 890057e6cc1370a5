// Package contact delivers messages from the contact form.
//
// A message is validated, kept in the inbox when one is configured,
// announced to the notifier, then posted to the relay endpoint.
package contact

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
	"github.com/Laisky/laisky-portfolio/library/log"
)

// field length limits in runes
const (
	maxNameLen    = 200
	maxSubjectLen = 300
	maxMessageLen = 5000
)

// Sender delivers a message somewhere outside the site
type Sender interface {
	Send(ctx context.Context, form dto.ContactForm) error
}

type option struct {
	relay    Sender
	inbox    *Inbox
	notifier Notifier
	logger   logSDK.Logger
}

// Option configures a Service
type Option func(*option) error

// WithRelay sets the relay messages are posted to
func WithRelay(relay Sender) Option {
	return func(o *option) error {
		o.relay = relay
		return nil
	}
}

// WithInbox keeps a copy of every message
func WithInbox(inbox *Inbox) Option {
	return func(o *option) error {
		o.inbox = inbox
		return nil
	}
}

// WithNotifier announces every message
func WithNotifier(n Notifier) Option {
	return func(o *option) error {
		o.notifier = n
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger logSDK.Logger) Option {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// Service handles contact submissions
type Service struct {
	opt *option
}

// New creates a Service, at least one of relay or inbox is required
func New(opts ...Option) (*Service, error) {
	opt := &option{logger: log.Logger.Named("contact")}
	for _, f := range opts {
		if err := f(opt); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}
	if opt.relay == nil && opt.inbox == nil {
		return nil, errors.New("contact needs a relay or an inbox")
	}

	return &Service{opt: opt}, nil
}

// Inbox returns the inbox, nil when not configured
func (s *Service) Inbox() *Inbox {
	return s.opt.inbox
}

// Validate trims form and checks required fields
func Validate(form *dto.ContactForm) error {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Subject = strings.TrimSpace(form.Subject)
	form.Message = strings.TrimSpace(form.Message)

	switch {
	case form.Name == "":
		return errors.Wrap(ErrInvalidMessage, "name is required")
	case form.Email == "":
		return errors.Wrap(ErrInvalidMessage, "email is required")
	case form.Message == "":
		return errors.Wrap(ErrInvalidMessage, "message is required")
	case utf8.RuneCountInString(form.Name) > maxNameLen,
		utf8.RuneCountInString(form.Subject) > maxSubjectLen,
		utf8.RuneCountInString(form.Message) > maxMessageLen:
		return errors.Wrap(ErrInvalidMessage, "field too long")
	}

	if _, err := mail.ParseAddress(form.Email); err != nil {
		return errors.Wrapf(ErrInvalidMessage, "invalid email %q", form.Email)
	}

	return nil
}

// Submit validates and delivers form.
//
// With a relay configured the result is the relay's, a message saved to
// the inbox stays there either way. Without a relay a saved message is a success.
func (s *Service) Submit(ctx context.Context, form dto.ContactForm) error {
	if err := Validate(&form); err != nil {
		return err
	}
	logger := s.opt.logger.With(zap.String("email", form.Email))

	var saved *Message
	if s.opt.inbox != nil {
		var err error
		if saved, err = s.opt.inbox.Save(ctx, form); err != nil {
			if s.opt.relay == nil {
				return errors.Wrap(ErrRelayFailed, err.Error())
			}
			logger.Error("save contact message", zap.Error(err))
		}
	}

	if s.opt.notifier != nil {
		if err := s.opt.notifier.Notify(ctx, form); err != nil {
			logger.Warn("notify contact message", zap.Error(err))
		}
	}

	if s.opt.relay == nil {
		logger.Info("contact message stored")
		return nil
	}

	if err := s.opt.relay.Send(ctx, form); err != nil {
		logger.Warn("relay contact message", zap.Error(err))
		return errors.WithStack(err)
	}

	if saved != nil {
		if err := s.opt.inbox.MarkRelayed(ctx, saved.ID); err != nil {
			logger.Warn("mark message relayed", zap.Error(err))
		}
	}

	logger.Info("contact message relayed")
	return nil
}
