package githubapp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v65/github"
	"golang.org/x/oauth2"
)

const defaultAPIBaseURL = "https://api.github.com"

// NewInstallationClient builds a GitHub API client authenticated with an
// installation token. Installation tokens are short-lived, so the client is
// good for one request's handling only.
func NewInstallationClient(baseURL, token string) (*github.Client, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)

	client := github.NewClient(httpClient)
	if baseURL != "" && baseURL != defaultAPIBaseURL {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
		}
		client.BaseURL = u
		client.UploadURL = u
	}
	return client, nil
}
