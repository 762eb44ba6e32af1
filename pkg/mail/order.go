package mail

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/printloft/storefront/pkg/types"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(
	`Hi {{.Name}},

Thanks for your order {{.Order.ID}}.
{{range .Order.Lines}}
  {{.Quantity}} x {{.Product.Name}}  {{.Subtotal.StringFixed 2}}{{end}}

Total: {{.Order.Total.StringFixed 2}}
Payment: {{.Method}}

Shipping to:
  {{.Order.Address.Name}}
  {{.Order.Address.Line1}}{{if .Order.Address.Line2}}
  {{.Order.Address.Line2}}{{end}}
  {{.Order.Address.City}}, {{.Order.Address.State}} {{.Order.Address.PostalCode}}
`))

var methodNames = map[types.PaymentMethod]string{
	types.PaymentCOD:  "Pay on delivery",
	types.PaymentCard: "Card",
	types.PaymentUPI:  "UPI",
}

// OrderMailer sends order confirmations through a Sender
type OrderMailer struct {
	sender   Sender
	from     string
	fromName string
}

// NewOrderMailer creates a mailer sending as fromName <from>
func NewOrderMailer(sender Sender, from, fromName string) *OrderMailer {
	return &OrderMailer{sender: sender, from: from, fromName: fromName}
}

// SendOrderConfirmation mails a summary of order to the signed-in user
func (m *OrderMailer) SendOrderConfirmation(ctx context.Context, to types.Identity, order *types.Order) error {
	if to.Email == "" {
		return ErrNoRecipient
	}

	body, err := renderConfirmation(to, order)
	if err != nil {
		return err
	}

	return m.sender.Send(ctx, Message{
		From:     m.from,
		FromName: m.fromName,
		To:       to.Email,
		ToName:   to.DisplayName,
		Subject:  fmt.Sprintf("Order %s confirmed", order.ID),
		Body:     body,
	})
}

func renderConfirmation(to types.Identity, order *types.Order) (string, error) {
	name := to.DisplayName
	if name == "" {
		name = order.Address.Name
	}
	method, ok := methodNames[order.Method]
	if !ok {
		method = string(order.Method)
	}

	var b strings.Builder
	err := confirmationTemplate.Execute(&b, struct {
		Name   string
		Method string
		Order  *types.Order
	}{name, method, order})
	if err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return b.String(), nil
}
