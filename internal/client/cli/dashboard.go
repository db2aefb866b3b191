package cli

import (
	"context"
	"fmt"

	"github.com/akosarev/folio-cli/internal/client/authz"
	"github.com/akosarev/folio-cli/internal/models"
)

// runDashboard показывает защищенный ролью экран
// "Не залогинен" и "залогинен, но нельзя" - намеренно разные исходы.
func (c *Cli) runDashboard(ctx context.Context) error {
	user, _ := c.svc.Restore(ctx)

	switch authz.Authorize(user, models.LevelDeveloper) {
	case authz.Allow:
		c.io.Printf("=== Dashboard (%s) ===\n", user.Role.Name)
		c.io.Println("Welcome back. Dashboard data lives on the server side.")
		return nil
	case authz.DenyAnonymous:
		return fmt.Errorf("login required: use 'folio login' first")
	case authz.DenyForbidden:
		return fmt.Errorf("access denied: your role does not allow the dashboard")
	default:
		return fmt.Errorf("unexpected authorization decision")
	}
}
