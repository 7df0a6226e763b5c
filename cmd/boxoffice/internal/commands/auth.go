package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfeidau/boxoffice/internal/api"
)

// SignInCmd signs in with email and password.
type SignInCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Account password" env:"BOXOFFICE_PASSWORD"`
}

func (c *SignInCmd) Run(ctx context.Context, globals *Globals) error {
	if c.Password == "" {
		return errors.New("password is required (--password or BOXOFFICE_PASSWORD)")
	}

	cl, err := globals.client()
	if err != nil {
		return err
	}

	sess, err := cl.SignIn(ctx, c.Email, c.Password)
	if err != nil {
		return err
	}

	fmt.Fprintf(globals.stdout(), "Signed in as %s (%s), session expires %s\n",
		sess.Email, sess.Role, formatMillis(sess.RefreshExpiresAt))
	return nil
}

// SignOutCmd signs out and removes the stored session.
type SignOutCmd struct{}

func (c *SignOutCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	if err := cl.SignOut(ctx); err != nil {
		return err
	}

	fmt.Fprintln(globals.stdout(), "Signed out.")
	return nil
}

// RegisterCmd creates a customer account.
type RegisterCmd struct {
	Name     string `arg:"" help:"Customer name"`
	Email    string `arg:"" help:"Customer email"`
	Password string `help:"Account password" env:"BOXOFFICE_PASSWORD" required:""`
	Mobile   string `help:"Mobile number"`
	Address  string `help:"Postal address"`
}

func (c *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	customer, err := cl.Register(ctx, api.Customer{
		CustomerName: c.Name,
		Email:        c.Email,
		Password:     c.Password,
		MobileNumber: c.Mobile,
		Address:      c.Address,
	})
	if err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}

	return globals.render(customer, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL")
		fmt.Fprintf(w, "%d\t%s\t%s\n", customer.CustomerID, customer.CustomerName, customer.Email)
	})
}

// ProfileCmd shows a customer profile, by default the signed in user's.
type ProfileCmd struct {
	ID int64 `arg:"" optional:"" help:"Customer ID"`
}

func (c *ProfileCmd) Run(ctx context.Context, globals *Globals) error {
	cl, err := globals.client()
	if err != nil {
		return err
	}

	id := c.ID
	if id == 0 {
		sess := cl.Store().Get()
		if sess == nil || sess.UserID == 0 {
			return api.ErrNotSignedIn
		}
		id = sess.UserID
	}

	customer, err := cl.GetCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get customer %d: %w", id, err)
	}

	return globals.render(customer, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", customer.CustomerID)
		fmt.Fprintf(w, "Name:\t%s\n", customer.CustomerName)
		fmt.Fprintf(w, "Email:\t%s\n", customer.Email)
		if customer.MobileNumber != "" {
			fmt.Fprintf(w, "Mobile:\t%s\n", customer.MobileNumber)
		}
		if customer.Address != "" {
			fmt.Fprintf(w, "Address:\t%s\n", customer.Address)
		}
	})
}

// WhoamiCmd shows the stored session without contacting the backend.
type WhoamiCmd struct{}

type whoami struct {
	Email            string    `json:"email" yaml:"email"`
	Role             string    `json:"role" yaml:"role"`
	UserID           int64     `json:"userId" yaml:"userId"`
	TokenType        string    `json:"tokenType" yaml:"tokenType"`
	Fingerprint      string    `json:"fingerprint" yaml:"fingerprint"`
	AccessExpiresAt  string    `json:"accessExpiresAt" yaml:"accessExpiresAt"`
	RefreshExpiresAt string    `json:"refreshExpiresAt" yaml:"refreshExpiresAt"`
	Subject          string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	IssuedAt         time.Time `json:"issuedAt,omitzero" yaml:"issuedAt,omitempty"`
}

func (c *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.store()
	if err != nil {
		return err
	}

	sess := store.Get()
	if sess == nil {
		fmt.Fprintln(globals.stdout(), "Not signed in.")
		return nil
	}

	info := whoami{
		Email:            sess.Email,
		Role:             sess.Role,
		UserID:           sess.UserID,
		TokenType:        sess.Type(),
		Fingerprint:      sess.Fingerprint(),
		AccessExpiresAt:  formatMillis(sess.AccessExpiresAt),
		RefreshExpiresAt: formatMillis(sess.RefreshExpiresAt),
	}

	// display only, the backend is the one verifying the signature
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.AccessToken, claims); err == nil {
		info.Subject, _ = claims.GetSubject()
		if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
			info.IssuedAt = iat.Time
		}
	}

	return globals.render(info, func(w io.Writer) {
		fmt.Fprintf(w, "Email:\t%s\n", info.Email)
		fmt.Fprintf(w, "Role:\t%s\n", info.Role)
		fmt.Fprintf(w, "User ID:\t%d\n", info.UserID)
		fmt.Fprintf(w, "Fingerprint:\t%s\n", info.Fingerprint)
		fmt.Fprintf(w, "Access expires:\t%s\n", info.AccessExpiresAt)
		fmt.Fprintf(w, "Refresh expires:\t%s\n", info.RefreshExpiresAt)
		if info.Subject != "" {
			fmt.Fprintf(w, "Token subject:\t%s\n", info.Subject)
		}
	})
}
