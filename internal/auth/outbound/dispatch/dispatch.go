// Package dispatch delivers verification codes over the configured channels.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/config"
	"github.com/authgate/authgate/internal/pkg/instrument"
	"github.com/authgate/authgate/internal/pkg/mail"
	"github.com/authgate/authgate/internal/pkg/messaging"
)

const keyOfCorrelationID string = "cID"

// smsMessage is the payload handed to the SMS relay via the broker.
type smsMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type Dispatcher struct {
	mail   mail.Mail
	broker messaging.Publisher
	cfg    config.Config
	ins    instrument.Instrumentation
}

func New(mailClient mail.Mail, broker messaging.Publisher, cfg config.Config, ins instrument.Instrumentation) *Dispatcher {
	return &Dispatcher{
		mail:   mailClient,
		broker: broker,
		cfg:    cfg,
		ins:    ins,
	}
}

func (d *Dispatcher) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return d.ins.Tracer("auth.outbound.dispatch").Start(ctx, name)
}

// Send delivers a verification code to the contact over the given method.
func (d *Dispatcher) Send(ctx context.Context, method entity.SecondFactorMethod, contact, code string) error {
	ctx, span := d.startSpan(ctx, "Send")
	defer span.End()

	var err error
	switch method {
	case entity.MethodEmail:
		err = d.sendEmail(ctx, contact, code)
	case entity.MethodSMS:
		err = d.sendSMS(ctx, contact, code)
	default:
		err = fmt.Errorf("no delivery channel for method %q", method)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (d *Dispatcher) sendEmail(ctx context.Context, contact, code string) error {
	msg := mail.Message{
		From:     d.cfg.GetString("modules.auth.otp_email_from"),
		To:       []string{contact},
		Subject:  "Your verification code",
		TextBody: fmt.Sprintf("Your verification code is %s. It expires shortly, do not share it with anyone.", code),
	}

	// SMTP hiccups are common enough to warrant a few quick retries.
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxRetries(3, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := d.mail.Send(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (d *Dispatcher) sendSMS(ctx context.Context, contact, code string) error {
	body, err := json.Marshal(smsMessage{
		To:   contact,
		Body: fmt.Sprintf("Your verification code is %s", code),
	})
	if err != nil {
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	_, err = d.broker.Publish(ctx, d.cfg.GetString("modules.auth.sms_topic"), messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(contact),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	})

	return err
}
