// Package mail sends order confirmation mail through SendGrid.
//
// SendGridClient delivers a Message through the v3 API. OrderMailer renders
// the plain-text confirmation for an order and hands it to any Sender, so
// tests can capture messages without the network.
package mail
