package email

import (
	"context"
)

// Service is the notification collaborator. Implementations must
// respect ctx deadlines; provisioning bounds every dispatch.
type Service interface {
	SendWelcome(ctx context.Context, to string, name string) error
	SendPasswordReset(ctx context.Context, to string, token string) error
	// SendManagerCredentials delivers a provisioned manager's login
	// email and temporary password.
	SendManagerCredentials(ctx context.Context, to string, hospitalName string, tempPassword string) error
	SendVerificationDecision(ctx context.Context, to string, hospitalName string, status string, reason string) error
}
