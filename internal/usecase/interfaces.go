package usecase

import "context"

// EmailSender is the external notification transport. Delivery is
// best-effort: failures are logged by the dispatcher and never propagated
// to the caller of the triggering write.
type EmailSender interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error
}

// RealtimePusher delivers payloads to connected clients. Implementations
// must not block the caller; a missing connection is not an error.
type RealtimePusher interface {
	SendToUser(userID string, message []byte)
}
