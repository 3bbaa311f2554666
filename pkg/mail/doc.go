// Package mail sends one fixed notification to a list of recipients over a
// single authenticated SMTP session. It contains the message type, the gomail
// based relay dialer, the Notifier run loop and the tagged errors a run can
// end with.
package mail
