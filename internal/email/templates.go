package email

import (
	"fmt"
	"strings"
	"time"
)

// Greeting name used when the user has no display name.
func greeting(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

func VerificationBody(verificationURL string) (subject, html string) {
	return "Verify your email address", fmt.Sprintf(`
		<h1>Welcome!</h1>
		<p>Please confirm your email address to activate your account.</p>
		<p><a href="%s">Verify Email</a></p>
		<p>This link expires in 24 hours. If you did not create an account, you can ignore this email.</p>
	`, verificationURL)
}

func PasswordResetBody(resetURL string) (subject, html string) {
	return "Reset your password", fmt.Sprintf(`
		<h1>Password Reset</h1>
		<p>We received a request to reset your password.</p>
		<p><a href="%s">Reset Password</a></p>
		<p>This link expires in 1 hour. If you did not request a reset, you can ignore this email.</p>
	`, resetURL)
}

func ActivationBody(name, planDisplayName string, periodEnd *time.Time) (subject, html string) {
	next := "your next billing date"
	if periodEnd != nil {
		next = periodEnd.Format("January 2, 2006")
	}
	return "Subscription Activated", fmt.Sprintf(`
		<h1>Welcome to %s!</h1>
		<p>Hi %s,</p>
		<p>Your subscription has been activated successfully.</p>
		<p>Plan: <strong>%s</strong></p>
		<p>Next billing date: %s</p>
		<p>Thank you for subscribing!</p>
	`, planDisplayName, greeting(name), planDisplayName, next)
}

func ReceiptBody(name string, amount float64, currency string, paidAt time.Time, invoiceURL string) (subject, html string) {
	link := ""
	if invoiceURL != "" {
		link = fmt.Sprintf(`<p><a href="%s">View Invoice</a></p>`, invoiceURL)
	}
	return "Payment Receipt", fmt.Sprintf(`
		<h1>Payment Received</h1>
		<p>Hi %s,</p>
		<p>Thank you for your payment!</p>
		<p>Amount: $%.2f %s</p>
		<p>Date: %s</p>
		%s
	`, greeting(name), amount, strings.ToUpper(currency), paidAt.Format("January 2, 2006"), link)
}

func PaymentFailedBody(name string, amount float64, currency, baseURL string) (subject, html string) {
	return "Payment Failed", fmt.Sprintf(`
		<h1>Payment Failed</h1>
		<p>Hi %s,</p>
		<p>We were unable to process your payment.</p>
		<p>Amount: $%.2f %s</p>
		<p>Please update your payment method to avoid service interruption.</p>
		<p><a href="%s/subscription">Update Payment Method</a></p>
	`, greeting(name), amount, strings.ToUpper(currency), baseURL)
}

func CancellationBody(name, planDisplayName string, immediate bool, periodEnd *time.Time) (subject, html string) {
	access := "<p>Your access has been terminated immediately.</p>"
	if !immediate {
		until := "the end of your billing period"
		if periodEnd != nil {
			until = periodEnd.Format("January 2, 2006")
		}
		access = fmt.Sprintf("<p>You will continue to have access until <strong>%s</strong>.</p>", until)
	}
	return "Subscription Canceled", fmt.Sprintf(`
		<h1>Subscription Canceled</h1>
		<p>Hi %s,</p>
		<p>Your subscription to <strong>%s</strong> has been canceled.</p>
		%s
		<p>You can reactivate your subscription anytime from your account settings.</p>
	`, greeting(name), planDisplayName, access)
}

func UpgradeBody(name, planDisplayName string, periodEnd *time.Time) (subject, html string) {
	next := "your next billing date"
	if periodEnd != nil {
		next = periodEnd.Format("January 2, 2006")
	}
	return "Subscription Updated", fmt.Sprintf(`
		<h1>Subscription Updated Successfully</h1>
		<p>Hi %s,</p>
		<p>Your subscription has been updated to <strong>%s</strong>.</p>
		<p>Your new subscription will be active immediately.</p>
		<p>Next billing date: %s</p>
	`, greeting(name), planDisplayName, next)
}
