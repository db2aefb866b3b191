package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/akosarev/folio-cli/internal/client/session"
)

// runMonitor держит сессию под наблюдением: предупреждает о скором истечении
// и выполняет принудительный logout по таймауту
func (c *Cli) runMonitor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	autoExtend := fs.Bool("auto-extend", false, "Extend the session automatically on warning")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := c.svc.Restore(ctx)
	if err != nil || user == nil {
		return fmt.Errorf("login required: use 'folio login' first")
	}

	done := make(chan struct{})

	c.sessions.OnWarning(func(w session.Warning) {
		c.io.Printf("\n! Session expires in %d minutes.\n", w.MinutesRemaining)
		if *autoExtend {
			if err := c.sessions.Extend(ctx); err != nil {
				c.io.Printf("Failed to extend session: %v\n", err)
				return
			}
			c.io.Println("Session extended.")
		} else {
			c.io.Println("Run 'folio monitor -auto-extend' to keep it alive automatically.")
		}
	})
	c.sessions.OnExpire(func() {
		close(done)
	})

	if err := c.sessions.Start(c.sessionTimeout, c.sessionWarning); err != nil {
		return err
	}

	c.io.Printf("Monitoring session for %s (warning %s before expiry). Ctrl-C to stop.\n",
		c.sessionTimeout, c.sessionWarning)

	select {
	case <-done:
		// Принудительный logout: таймаут сессии истек
		if err := c.svc.Logout(ctx); err != nil {
			return err
		}
		c.io.Println("Session expired. You have been logged out.")
		return nil
	case <-ctx.Done():
		c.sessions.Cancel()
		return ctx.Err()
	}
}
