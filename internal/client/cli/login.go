package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println("")

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	remember, err := c.io.Confirm("Remember me on this device?")
	if err != nil {
		return fmt.Errorf("failed to read answer: %w", err)
	}

	c.io.Println("")
	c.io.Println("Authenticating...")

	result, err := c.svc.Login(ctx, email, password, remember)
	if err != nil {
		return err
	}

	// Сервер потребовал второй фактор
	if result.MFARequired {
		code, err := c.io.ReadInput("Verification code: ")
		if err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}

		user, err := c.svc.VerifyChallenge(ctx, code, result.SessionID, remember)
		if err != nil {
			return err
		}
		result.User = user
	}

	c.io.Println("")
	c.io.Println("✓ Login successful!")
	if result.User != nil {
		c.io.Printf("Logged in as: %s\n", result.User.Username)
	}
	if !c.svc.Store().Persistent() {
		c.io.Println("Note: session is stored in memory only and will not survive restart.")
	}

	return nil
}
