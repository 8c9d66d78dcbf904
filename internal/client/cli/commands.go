package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/formrelay/internal/apierr"
)

// describeError turns a normalized API error into the message shown to the
// user. Anything else falls through unchanged.
func describeError(err error) string {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		switch {
		case ae.NetworkError:
			return "No connection to the server."
		case ae.Timeout:
			return "The server took too long to respond."
		case ae.Canceled:
			return "Request canceled."
		case ae.Status != 0:
			return fmt.Sprintf("Server error: %s", ae.Message)
		}
	}
	return err.Error()
}

func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, username, string(password)); err != nil {
		printlnFn(describeError(err))
		return err
	}

	printlnFn("Registered. You can now log in.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, username, string(password)); err != nil {
		printlnFn(describeError(err))
		return err
	}

	printlnFn("Logged in as " + username)
	return nil
}

func (a *App) Submit(ctx context.Context) error {
	formID, err := GetSimpleText(a.reader, "Form id", os.Stdout)
	if err != nil {
		return err
	}
	payload, err := GetMultiline(a.reader, "Payload (JSON)", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.EnsureFresh(ctx); err != nil {
		a.logger.Warn(ctx, "token refresh failed", "error", err.Error())
	}

	queued, err := a.submissions.Submit(ctx, formID, []byte(payload))
	if err != nil {
		printlnFn(describeError(err))
		return err
	}

	if queued {
		printlnFn("No connection — submission saved to the offline queue.")
	} else {
		printlnFn("Submitted.")
	}
	return nil
}

func (a *App) List(ctx context.Context) error {
	forms, stale, err := a.forms.List(ctx)
	if err != nil {
		printlnFn(describeError(err))
		return err
	}

	if stale {
		printlnFn("(offline — showing cached data)")
	}
	for _, f := range forms {
		printlnFn(fmt.Sprintf("%s  %s", f.ID, f.Title))
	}
	return nil
}

func (a *App) Pending(ctx context.Context) error {
	items, err := a.submissions.Pending(ctx)
	if err != nil {
		printlnFn(describeError(err))
		return err
	}

	if len(items) == 0 {
		printlnFn("The offline queue is empty.")
		return nil
	}
	for _, item := range items {
		line := fmt.Sprintf("%s  form=%s  created=%s  attempts=%d",
			item.ID, item.FormID, item.CreatedAt.Format("2006-01-02 15:04:05"), item.Attempts)
		if item.LastError != "" {
			line += "  last_error=" + item.LastError
		}
		printlnFn(line)
	}
	return nil
}

func (a *App) Drain(ctx context.Context) error {
	if err := a.submissions.Drain(ctx); err != nil {
		printlnFn(describeError(err))
		return err
	}

	n, err := a.submissions.PendingCount(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Drain finished, %d submission(s) still queued.", n))
	return nil
}

// Attach uploads a file for an already-delivered submission: the server
// issues a presigned PUT URL and the client uploads directly to object
// storage. Attachments are online-only; there is no offline queue for them.
func (a *App) Attach(ctx context.Context) error {
	submissionID, err := GetSimpleText(a.reader, "Submission id", os.Stdout)
	if err != nil {
		return err
	}
	path, err := GetSimpleText(a.reader, "File path", os.Stdout)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		printlnFn("Cannot read file: " + err.Error())
		return err
	}

	key, err := a.attachments.Upload(ctx, submissionID, data)
	if err != nil {
		printlnFn(describeError(err))
		return err
	}

	printlnFn("Uploaded as " + key)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		printlnFn(describeError(err))
		return err
	}
	printlnFn("Logged out.")
	return nil
}
