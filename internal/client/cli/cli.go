// Package cli - команды терминального клиента folio.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/akosarev/folio-cli/internal/client/auth"
	"github.com/akosarev/folio-cli/internal/client/iocli"
	"github.com/akosarev/folio-cli/internal/client/session"
)

// Cli держит зависимости команд
type Cli struct {
	io             iocli.IO
	svc            *auth.Service
	sessions       *session.Manager
	sessionTimeout time.Duration
	sessionWarning time.Duration
}

// New создает обработчик команд
func New(io iocli.IO, svc *auth.Service, sessions *session.Manager, sessionTimeout, sessionWarning time.Duration) *Cli {
	return &Cli{
		io:             io,
		svc:            svc,
		sessions:       sessions,
		sessionTimeout: sessionTimeout,
		sessionWarning: sessionWarning,
	}
}

// Run выполняет команду
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "dashboard":
		return c.runDashboard(ctx)
	case "monitor":
		return c.runMonitor(ctx, args)
	case "reset-password":
		return c.runResetPassword(ctx)
	case "help":
		c.PrintUsage()
		return nil
	default:
		c.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// PrintUsage печатает справку по командам
func (c *Cli) PrintUsage() {
	c.io.Println("Usage: folio [flags] <command>")
	c.io.Println("")
	c.io.Println("Commands:")
	c.io.Println("  register        Create a new account (email verification required)")
	c.io.Println("  login           Log in and store the session")
	c.io.Println("  logout          Log out and clear the stored session")
	c.io.Println("  status          Show current session state")
	c.io.Println("  dashboard       Open the role-gated dashboard view")
	c.io.Println("  monitor         Keep the session alive until it expires")
	c.io.Println("  reset-password  Recover a forgotten password")
	c.io.Println("  help            Show this help")
}
