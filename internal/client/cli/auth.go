package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eventdesk/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for email and password and signs in. Failures are
// reported to the user and returned.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		a.report(ctx, err, nil)
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s (%s)\n", user.FullName(), user.Role)
	return nil
}

// Logout drops the session and leaves the list screens.
func (a *App) Logout(ctx context.Context) error {
	a.pendingList.Blur()
	a.approvedList.Blur()
	a.lastFailed = nil
	a.authService.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	cred := a.authService.Current(ctx)
	if cred == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	u := cred.User
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\n", u.FullName(), u.Email, u.Role)
	return nil
}
