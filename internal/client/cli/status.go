package cli

import (
	"context"

	"github.com/akosarev/folio-cli/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	user, err := c.svc.Restore(ctx)

	status := c.svc.Notifier().Current()
	switch status.State {
	case auth.StateAuthenticated:
		c.io.Println("Status: authenticated")
		if user != nil {
			c.io.Printf("User: %s\n", user.Username)
			if user.Role != nil {
				c.io.Printf("Role: %s (level %d)\n", user.Role.Name, user.Role.Level)
			}
		}
		if c.svc.Store().Persistent() {
			c.io.Println("Session storage: persistent")
		} else {
			c.io.Println("Session storage: in-memory")
		}
	case auth.StateAnonymous:
		c.io.Println("Status: not logged in")
		if err != nil {
			c.io.Println("Stored session was invalid and has been cleared.")
		}
	default:
		c.io.Println("Status: unknown")
	}

	return nil
}
