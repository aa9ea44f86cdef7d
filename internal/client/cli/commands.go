package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Indirections over the interactive input helpers, swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getCode       = GetCode
)

func (a *App) readPassword(prompt string) (string, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func (a *App) say(msg string) {
	printlnFn(msg)
}

// Register prompts for name, email, password and an optional role and
// creates a local account.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Enter password")
	if err != nil {
		return err
	}
	role, err := getSimpleText(a.reader, "Enter role (empty for default)", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.Register(ctx, name, email, password, role)
	if err != nil {
		return err
	}
	a.say(msg)
	return nil
}

func (a *App) RequestEmailToken(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.RequestEmailToken(ctx, email)
	if err != nil {
		return err
	}
	a.say(msg)
	return nil
}

func (a *App) VerifyEmail(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	code, err := getCode(a.reader, "Enter verification code", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.VerifyEmail(ctx, email, code)
	if err != nil {
		return err
	}
	a.say(msg)
	return nil
}

// Login authenticates with email and password and keeps the session token
// in memory for update-password and logout.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Enter password")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.email = user.Email
	a.say(fmt.Sprintf("Logged in as %s (%s)", user.Email, user.Role))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.Logout(ctx)
	a.email = ""
	if err != nil {
		return err
	}
	a.say(msg)
	return nil
}

func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	a.say(msg)
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	code, err := getCode(a.reader, "Enter reset code", a.out)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Enter new password")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.ResetPassword(ctx, email, code, password)
	if err != nil {
		return err
	}
	a.say(msg)
	return nil
}

func (a *App) UpdatePassword(ctx context.Context) error {
	current, err := a.readPassword("Enter current password")
	if err != nil {
		return err
	}
	next, err := a.readPassword("Enter new password")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.UpdatePassword(ctx, current, next)
	if err != nil {
		return err
	}
	a.say(msg)
	return nil
}

// SocialAuth signs in with an identity already asserted by google or apple.
// The identity is taken as typed; no provider round trip happens here.
func (a *App) SocialAuth(ctx context.Context) error {
	provider, err := getSimpleText(a.reader, "Enter provider (google, apple)", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.client.SocialAuth(ctx, email, name, "", provider)
	if err != nil {
		return err
	}
	a.email = user.Email
	a.say(fmt.Sprintf("Signed in with %s as %s", user.Provider, user.Email))
	return nil
}
