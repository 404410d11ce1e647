package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dishdash/pkg/lifecycle"
	"dishdash/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	calls    int
	failures int
	lastTo   string
	lastSubj string
	lastBody string
}

func (f *fakeSender) Send(_ context.Context, to, subject, htmlBody string) error {
	f.calls++
	f.lastTo, f.lastSubj, f.lastBody = to, subject, htmlBody
	if f.calls <= f.failures {
		return errors.New("smtp unavailable")
	}
	return nil
}

func testLogger() logger.ILogger {
	return logger.New("mailer-test", "error")
}

func fastBackoff(t *testing.T) {
	t.Helper()
	old := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = old })
}

func TestDispatchSucceedsFirstAttempt(t *testing.T) {
	fastBackoff(t)
	f := &fakeSender{}
	m := New(f, testLogger())

	err := m.DispatchStatusEmail(context.Background(), "jane@example.com", lifecycle.StatusReceived, TemplateData{
		CustomerName: "Jane",
		OrderNumber:  "ORD-20260831-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "jane@example.com", f.lastTo)
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	fastBackoff(t)
	f := &fakeSender{failures: 2}
	m := New(f, testLogger())

	err := m.DispatchStatusEmail(context.Background(), "jane@example.com", lifecycle.StatusPreparing, TemplateData{
		OrderNumber: "ORD-20260831-0002",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.calls)
}

func TestDispatchGivesUpAfterThreeAttempts(t *testing.T) {
	fastBackoff(t)
	f := &fakeSender{failures: 10}
	m := New(f, testLogger())

	err := m.DispatchStatusEmail(context.Background(), "jane@example.com", lifecycle.StatusReady, TemplateData{
		OrderNumber: "ORD-20260831-0003",
	})
	require.Error(t, err)
	assert.Equal(t, 3, f.calls)
}

func TestDispatchUnknownStatusFailsWithoutSending(t *testing.T) {
	f := &fakeSender{}
	m := New(f, testLogger())

	err := m.DispatchStatusEmail(context.Background(), "jane@example.com", lifecycle.StatusConfirmed, TemplateData{})
	require.Error(t, err)
	assert.Zero(t, f.calls)
}

func TestRenderFields(t *testing.T) {
	subject, body, err := Render(lifecycle.StatusDelivered, TemplateData{
		CustomerName:    "Omar",
		OrderNumber:     "ORD-20260831-0042",
		DeliveryAddress: "12 Elm St",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "Order Delivered")
	assert.Contains(t, subject, "ORD-20260831-0042")
	assert.Contains(t, body, "Omar")
	assert.Contains(t, body, "12 Elm St")
	assert.Contains(t, body, "automated message")
}

func TestRenderFallbackName(t *testing.T) {
	_, body, err := Render(lifecycle.StatusReceived, TemplateData{OrderNumber: "ORD-1"})
	require.NoError(t, err)
	assert.Contains(t, body, "Valued Customer")
}

func TestRenderPickupLocation(t *testing.T) {
	_, body, err := Render(lifecycle.StatusReady, TemplateData{
		OrderNumber:    "ORD-2",
		PickupLocation: "45 Main St",
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(body, "45 Main St"))
}
