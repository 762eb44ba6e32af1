package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printloft/storefront/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func testOrder() *types.Order {
	lines := []types.CartLine{
		{ProductID: "vase", Product: types.ProductSnapshot{Name: "Spiral Vase", Price: decimal.NewFromInt(500)}, Quantity: 2},
		{ProductID: "lamp", Product: types.ProductSnapshot{Name: "Moon Lamp", Price: decimal.RequireFromString("899.5")}, Quantity: 1},
	}
	return &types.Order{
		ID:     "order-42",
		UserID: "alice",
		Lines:  lines,
		Total:  decimal.RequireFromString("1899.5"),
		Address: types.Address{
			Name: "Alice", Phone: "9800000000", Line1: "12 MG Road",
			City: "Bengaluru", State: "Karnataka", PostalCode: "560001",
		},
		Method:   types.PaymentCOD,
		PlacedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	sender := &captureSender{}
	m := NewOrderMailer(sender, "orders@printloft.example", "Printloft")

	err := m.SendOrderConfirmation(context.Background(),
		types.Identity{UserID: "alice", Email: "alice@example.com", DisplayName: "Alice B"},
		testOrder())
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "orders@printloft.example", msg.From)
	assert.Equal(t, "Printloft", msg.FromName)
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Order order-42 confirmed", msg.Subject)

	assert.Contains(t, msg.Body, "Hi Alice B,")
	assert.Contains(t, msg.Body, "2 x Spiral Vase  1000.00")
	assert.Contains(t, msg.Body, "1 x Moon Lamp  899.50")
	assert.Contains(t, msg.Body, "Total: 1899.50")
	assert.Contains(t, msg.Body, "Payment: Pay on delivery")
	assert.Contains(t, msg.Body, "Bengaluru, Karnataka 560001")
}

func TestSendOrderConfirmationWithoutEmail(t *testing.T) {
	sender := &captureSender{}
	m := NewOrderMailer(sender, "orders@printloft.example", "Printloft")

	err := m.SendOrderConfirmation(context.Background(), types.Identity{UserID: "alice"}, testOrder())

	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, sender.sent)
}

func TestSendOrderConfirmationSenderError(t *testing.T) {
	boom := errors.New("rate limited")
	m := NewOrderMailer(&captureSender{err: boom}, "orders@printloft.example", "")

	err := m.SendOrderConfirmation(context.Background(), types.Identity{Email: "a@example.com"}, testOrder())
	assert.ErrorIs(t, err, boom)
}

func TestSendGridClientValidation(t *testing.T) {
	valid := Message{From: "orders@printloft.example", To: "alice@example.com", Subject: "hi"}

	tests := []struct {
		name   string
		apiKey string
		mutate func(*Message)
		want   error
	}{
		{"no api key", "", func(*Message) {}, ErrNoAPIKey},
		{"no sender", "SG.key", func(m *Message) { m.From = "" }, ErrNoSender},
		{"no recipient", "SG.key", func(m *Message) { m.To = "" }, ErrNoRecipient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := valid
			tt.mutate(&msg)
			err := NewSendGridClient(tt.apiKey).Send(context.Background(), msg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
