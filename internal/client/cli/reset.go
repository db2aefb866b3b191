package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runResetPassword(ctx context.Context) error {
	c.io.Println("=== Password reset ===")
	c.io.Println("")

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	if err := c.svc.RequestPasswordReset(ctx, email); err != nil {
		return err
	}
	c.io.Println("If the email is registered, a reset link has been sent.")

	resetToken, err := c.io.ReadInput("Reset token from the email: ")
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	password, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm new password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := c.svc.ResetPassword(ctx, resetToken, password); err != nil {
		return err
	}

	c.io.Println("")
	c.io.Println("✓ Password updated. Use 'folio login' to sign in.")

	return nil
}
