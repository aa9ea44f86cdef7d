package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	if a.email == "" || !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s)", a.email)
}

// Root prints a greeting and runs the REPL until the user leaves.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to gophauth CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
