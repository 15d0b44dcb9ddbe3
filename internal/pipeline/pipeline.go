package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v65/github"

	"github.com/mattjoyce/portcullis/internal/event"
	"github.com/mattjoyce/portcullis/internal/githubapp"
	"github.com/mattjoyce/portcullis/internal/signature"
)

// Request is one inbound webhook delivery: the literal body bytes plus the
// headers the pipeline needs. Body must be the exact bytes received — any
// re-encoding breaks signature verification.
type Request struct {
	Body       []byte
	EventType  string
	Signature  string
	DeliveryID string
}

// Exchanger trades an app assertion for an installation token. Satisfied by
// *githubapp.Exchanger; mocked in tests.
type Exchanger interface {
	Exchange(ctx context.Context, assertion string, installationID int64) (*githubapp.InstallationToken, error)
}

// ClientFactory builds an API client from an installation token.
type ClientFactory func(baseURL, token string) (*github.Client, error)

// Pipeline orchestrates signature verification, app authentication,
// installation token exchange, and dispatch. All collaborators are injected;
// the pipeline holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	creds      *githubapp.Credentials
	issuer     *githubapp.Issuer
	exchanger  Exchanger
	dispatcher *event.Dispatcher
	logger     *slog.Logger

	newClient      ClientFactory
	retryTransient bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRetryTransient enables a single retry of the token exchange when the
// first attempt fails transiently.
func WithRetryTransient(enabled bool) Option {
	return func(p *Pipeline) { p.retryTransient = enabled }
}

// WithClientFactory overrides how authenticated clients are built (tests).
func WithClientFactory(f ClientFactory) Option {
	return func(p *Pipeline) { p.newClient = f }
}

// New wires a Pipeline from its collaborators.
func New(creds *githubapp.Credentials, issuer *githubapp.Issuer, exchanger Exchanger, dispatcher *event.Dispatcher, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		creds:      creds,
		issuer:     issuer,
		exchanger:  exchanger,
		dispatcher: dispatcher,
		logger:     logger,
		newClient:  githubapp.NewInstallationClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one delivery through the full authentication sequence.
// Returned errors carry the package taxonomy for the HTTP layer to map onto
// status codes; a nil return means the delivery was acknowledged, whether or
// not any handler matched.
func (p *Pipeline) Process(ctx context.Context, req Request) error {
	logger := p.logger.With(slog.String("delivery_id", req.DeliveryID))

	// Received → SignatureChecked
	if err := signature.Verify(req.Body, req.Signature, p.creds.WebhookSecret); err != nil {
		logger.Warn("webhook signature verification failed", "event", req.EventType)
		return err
	}

	// SignatureChecked → PayloadParsed
	payload, err := event.ParsePayload(req.Body)
	if err != nil {
		logger.Warn("webhook payload unparseable", "event", req.EventType)
		return err
	}

	logger.Info("webhook event verified",
		"event", req.EventType,
		"action", payload.Action,
		"repo", payload.Repository.FullName,
	)

	// PayloadParsed → AppAuthenticated
	assertion, err := p.issuer.Mint()
	if err != nil {
		logger.Error("app assertion mint failed", "error", err)
		return err
	}

	// AppAuthenticated → InstallationAuthenticated
	installationID, ok := payload.InstallationID()
	if !ok {
		return fmt.Errorf("%w: payload carries no installation id", githubapp.ErrAuthentication)
	}

	token, err := p.exchange(ctx, logger, assertion, installationID)
	if err != nil {
		return err
	}

	client, err := p.newClient(p.creds.APIBaseURL, token.Value)
	if err != nil {
		return fmt.Errorf("%w: building installation client: %v", githubapp.ErrCredential, err)
	}

	// InstallationAuthenticated → Dispatched → Acknowledged
	handled, err := p.dispatcher.Dispatch(ctx, req.EventType, payload, client)
	if err != nil {
		logger.Error("handler failed", "event", req.EventType, "action", payload.Action, "error", err)
		return err
	}

	logger.Info("webhook event acknowledged",
		"event", req.EventType,
		"action", payload.Action,
		"handled", handled,
	)
	return nil
}

// exchange performs the token exchange, with at most one retry on transient
// failure when enabled. The request context bounds both attempts.
func (p *Pipeline) exchange(ctx context.Context, logger *slog.Logger, assertion string, installationID int64) (*githubapp.InstallationToken, error) {
	token, err := p.exchanger.Exchange(ctx, assertion, installationID)
	if err == nil {
		return token, nil
	}

	if p.retryTransient && errors.Is(err, githubapp.ErrTransient) && ctx.Err() == nil {
		logger.Warn("token exchange failed transiently, retrying once", "installation_id", installationID)
		return p.exchanger.Exchange(ctx, assertion, installationID)
	}

	return nil, err
}
