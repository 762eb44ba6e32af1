package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Identity represents the signed-in visitor. The zero value means "none".
type Identity struct {
	UserID      string `json:"userId" yaml:"userId"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// IsAnonymous reports whether no user is signed in
func (i Identity) IsAnonymous() bool {
	return strings.TrimSpace(i.UserID) == ""
}

// Same reports whether two identities refer to the same user.
// Only the user ID participates; profile fields may change without a transition.
func (i Identity) Same(other Identity) bool {
	return strings.TrimSpace(i.UserID) == strings.TrimSpace(other.UserID)
}

// Mode returns the cart mode derived from this identity
func (i Identity) Mode() CartMode {
	if i.IsAnonymous() {
		return ModeAnonymous
	}
	return ModeAuthenticated
}

// CartMode selects the authoritative cart backend
type CartMode string

const (
	ModeAnonymous     CartMode = "anonymous"
	ModeAuthenticated CartMode = "authenticated"
)

// ProductSnapshot is a denormalized copy of product display fields taken when
// the line was created, so the cart renders without the catalog.
type ProductSnapshot struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
	Emoji string          `json:"emoji,omitempty"`
}

// CartLine is one product-quantity pairing within the cart
type CartLine struct {
	LineID    string          `json:"lineId"`
	ProductID string          `json:"productId"`
	Product   ProductSnapshot `json:"product"`
	Quantity  int             `json:"quantity"`
	RemoteID  string          `json:"remoteId,omitempty"` // Empty for lines held only on the device
}

// Subtotal returns quantity × price. Non-positive quantities contribute nothing.
func (l CartLine) Subtotal() decimal.Decimal {
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CloneLines returns a copy of lines that shares no backing array with the input
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return []CartLine{}
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// FindByProduct returns the index of the line holding productID, or -1
func FindByProduct(lines []CartLine, productID string) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// FindByLineID returns the index of the line with lineID, or -1
func FindByLineID(lines []CartLine, lineID string) int {
	for i := range lines {
		if lines[i].LineID == lineID {
			return i
		}
	}
	return -1
}

// CheckoutStep is the position of a checkout session in its state machine
type CheckoutStep string

const (
	StepIdle           CheckoutStep = "idle"
	StepAddressCapture CheckoutStep = "address"
	StepPaymentCapture CheckoutStep = "payment"
)

// String representation (for logging)
func (s CheckoutStep) String() string {
	return string(s)
}

// Address is a shipping address captured during checkout
type Address struct {
	Name       string `json:"name" yaml:"name"`
	Phone      string `json:"phone" yaml:"phone"`
	Line1      string `json:"line1" yaml:"line1"`
	Line2      string `json:"line2,omitempty" yaml:"line2,omitempty"` // Optional
	City       string `json:"city" yaml:"city"`
	State      string `json:"state" yaml:"state"`
	PostalCode string `json:"postalCode" yaml:"postalCode"`
}

var postalCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Missing returns the names of required fields that are blank, in form order
func (a Address) Missing() []string {
	var missing []string
	fields := []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"phone", a.Phone},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Complete reports whether every required field is filled in
func (a Address) Complete() bool {
	return len(a.Missing()) == 0
}

// WellFormedPostalCode reports whether the postal code is exactly six digits.
// This is a form-level check; the checkout state machine only requires non-blank fields.
func (a Address) WellFormedPostalCode() bool {
	return postalCodePattern.MatchString(strings.TrimSpace(a.PostalCode))
}

// Normalize returns a copy with surrounding whitespace removed from every field
func (a Address) Normalize() Address {
	return Address{
		Name:       strings.TrimSpace(a.Name),
		Phone:      strings.TrimSpace(a.Phone),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
	}
}

// PaymentMethod identifies how an order is paid
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod" // Pay on delivery
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

// Supported reports whether the method is one the storefront accepts
func (m PaymentMethod) Supported() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI:
		return true
	default:
		return false
	}
}

// PaymentDetails carries the extra fields some payment methods require
type PaymentDetails struct {
	CardNumber string `json:"cardNumber,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	UPIID      string `json:"upiId,omitempty"`
}

// MissingFor returns the names of fields method requires that are blank
func (d PaymentDetails) MissingFor(method PaymentMethod) []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	switch method {
	case PaymentCard:
		check("cardNumber", d.CardNumber)
		check("expiry", d.Expiry)
		check("cvv", d.CVV)
	case PaymentUPI:
		check("upiId", d.UPIID)
	}
	return missing
}

// CheckoutSession tracks progress through address and payment capture
type CheckoutSession struct {
	Step          CheckoutStep
	Address       *Address
	PaymentMethod PaymentMethod
	Payment       PaymentDetails
	StartedAt     time.Time
}

// Notification is the single user-facing message slot
type Notification struct {
	Visible bool   `json:"visible"`
	Message string `json:"message"`
}

// Order is the record closed out when checkout completes
type Order struct {
	ID       string          `json:"id"`
	UserID   string          `json:"userId,omitempty"`
	Lines    []CartLine      `json:"lines"`
	Total    decimal.Decimal `json:"total"`
	Address  Address         `json:"address"`
	Method   PaymentMethod   `json:"paymentMethod"`
	PlacedAt time.Time       `json:"placedAt"`
}
