// Package handlers contains the built-in event handlers. Business logic
// lives behind the dispatcher's (event, action) registry; everything here is
// replaceable without touching the authentication pipeline.
package handlers

import (
	"context"
	"fmt"

	"github.com/google/go-github/v65/github"

	"github.com/mattjoyce/portcullis/internal/event"
)

// LabelOpenedIssues returns an issues.opened handler that applies a triage
// label to every newly opened issue, acting as the installation.
func LabelOpenedIssues(label string) event.HandlerFunc {
	return func(ctx context.Context, payload *event.Payload, client *github.Client) error {
		if payload.Issue == nil {
			return fmt.Errorf("issues event without issue data")
		}

		owner := payload.Repository.Owner.Login
		repo := payload.Repository.Name
		number := payload.Issue.Number

		_, _, err := client.Issues.AddLabelsToIssue(ctx, owner, repo, number, []string{label})
		if err != nil {
			return fmt.Errorf("adding label %q to %s/%s#%d: %w", label, owner, repo, number, err)
		}
		return nil
	}
}
