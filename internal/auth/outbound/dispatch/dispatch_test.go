package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/authgate/authgate/internal/auth/entity"
	"github.com/authgate/authgate/internal/pkg/config"
	"github.com/authgate/authgate/internal/pkg/instrument"
	"github.com/authgate/authgate/internal/pkg/mail"
	"github.com/authgate/authgate/internal/pkg/messaging"
)

const testConfigYAML = `
modules:
  auth:
    otp_email_from: no-reply@authgate.dev
    sms_topic: authgate.sms.outgoing
`

type fakeMail struct {
	failures int
	sent     []mail.Message
}

func (m *fakeMail) Close() error { return nil }

func (m *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp: connection reset")
	}

	m.sent = append(m.sent, msg)
	return nil
}

type fakeBroker struct {
	topic string
	msgs  []messaging.OutgoingMessage
	err   error
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	if b.err != nil {
		return messaging.PublishResult{}, b.err
	}

	b.topic = destination
	b.msgs = append(b.msgs, msg)

	return messaging.PublishResult{Topic: destination}, nil
}

func newTestDispatcher(t *testing.T, mc *fakeMail, br *fakeBroker) *Dispatcher {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	t.Cleanup(func() { _ = cfg.Close() })

	return New(mc, br, cfg, instrument.NewNoop())
}

func TestSendEmail(t *testing.T) {
	mc := &fakeMail{}
	d := newTestDispatcher(t, mc, &fakeBroker{})

	if err := d.Send(t.Context(), entity.MethodEmail, "user@example.com", "123456"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(mc.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mc.sent))
	}
	msg := mc.sent[0]
	if msg.From != "no-reply@authgate.dev" || msg.To[0] != "user@example.com" {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
	if !strings.Contains(msg.TextBody, "123456") {
		t.Fatalf("code missing from body: %q", msg.TextBody)
	}
}

func TestSendEmailRetriesTransientFailures(t *testing.T) {
	mc := &fakeMail{failures: 2}
	d := newTestDispatcher(t, mc, &fakeBroker{})

	if err := d.Send(t.Context(), entity.MethodEmail, "user@example.com", "123456"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(mc.sent) != 1 {
		t.Fatalf("expected the retried mail to land, got %d", len(mc.sent))
	}
}

func TestSendEmailGivesUpEventually(t *testing.T) {
	mc := &fakeMail{failures: 10}
	d := newTestDispatcher(t, mc, &fakeBroker{})

	if err := d.Send(t.Context(), entity.MethodEmail, "user@example.com", "123456"); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
}

func TestSendSMSPublishesToBroker(t *testing.T) {
	br := &fakeBroker{}
	d := newTestDispatcher(t, &fakeMail{}, br)

	ctx := instrument.SetCorrelationID(t.Context(), "cid-123")
	if err := d.Send(ctx, entity.MethodSMS, "628123456789", "654321"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if br.topic != "authgate.sms.outgoing" {
		t.Fatalf("unexpected topic: %q", br.topic)
	}
	if len(br.msgs) != 1 {
		t.Fatalf("expected one publish, got %d", len(br.msgs))
	}

	var payload smsMessage
	if err := json.Unmarshal(br.msgs[0].Body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.To != "628123456789" || !strings.Contains(payload.Body, "654321") {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if len(br.msgs[0].Headers) != 1 || string(br.msgs[0].Headers[0].Value) != "cid-123" {
		t.Fatalf("correlation header missing: %+v", br.msgs[0].Headers)
	}
}

func TestSendRejectsAppMethod(t *testing.T) {
	d := newTestDispatcher(t, &fakeMail{}, &fakeBroker{})

	if err := d.Send(t.Context(), entity.MethodAuthenticatorApp, "Aegis", "123456"); err == nil {
		t.Fatal("expected an error for the app method")
	}
}
