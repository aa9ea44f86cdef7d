package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	RequestEmailToken(ctx context.Context) error
	VerifyEmail(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	UpdatePassword(ctx context.Context) error
	SocialAuth(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, request-email-token, verify-email, login, social, forgot-password, reset-password, exit"
	helpLoggedIn  = "Available commands: update-password, logout, request-email-token, verify-email, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// Command prompts read from the same reader, so a single buffer owns stdin.
// The loop exits on EOF or when the user types "exit" or "quit". Command
// errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gophauth %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "request-email-token":
			cmdErr = a.RequestEmailToken(ctx)

		case "verify-email":
			cmdErr = a.VerifyEmail(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "social":
			cmdErr = a.SocialAuth(ctx)

		case "forgot-password":
			cmdErr = a.ForgotPassword(ctx)

		case "reset-password":
			cmdErr = a.ResetPassword(ctx)

		case "update-password":
			cmdErr = a.UpdatePassword(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
