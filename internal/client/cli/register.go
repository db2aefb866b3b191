package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println("")

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	// Шаг 1: подтверждение email одноразовым кодом
	if err := c.svc.SendOTP(ctx, email); err != nil {
		return err
	}
	c.io.Println("A verification code has been sent to your email.")

	code, err := c.io.ReadInput("Verification code: ")
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	if err := c.svc.VerifyOTP(ctx, email, code); err != nil {
		return err
	}
	c.io.Println("✓ Email verified.")
	c.io.Println("")

	// Шаг 2: создание аккаунта
	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := c.svc.Register(ctx, username, email, password); err != nil {
		return err
	}

	c.io.Println("")
	c.io.Println("✓ Registration successful! Use 'folio login' to sign in.")

	return nil
}
