package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/radio-alternator/internal/api/grpc/alternator"
	"github.com/oshokin/radio-alternator/internal/config"
	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
)

// Client wraps the gRPC AlternatorService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alternator server.
	conn *grpc.ClientConn
	// api is the typed AlternatorService stub.
	api *api.Client

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor identifies the caller in server logs.
	actor string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor sets the identity sent with every call.
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the alternator server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alternator server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Start asks the server to start a run; zero durations keep the server's settings.
// The second result reports that a run was already active.
func (c *Client) Start(ctx context.Context, cfg domain.Config) (*domain.Status, bool, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Start(callCtx, api.StartRequest(cfg))
	if err != nil {
		return nil, false, fmt.Errorf("start alternator: %w", err)
	}

	status, alreadyRunning := api.StatusFromStruct(resp)

	return status, alreadyRunning, nil
}

// Stop asks the server to stop the current run.
func (c *Client) Stop(ctx context.Context) (*domain.Status, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Stop(callCtx)
	if err != nil {
		return nil, fmt.Errorf("stop alternator: %w", err)
	}

	status, _ := api.StatusFromStruct(resp)

	return status, nil
}

// TogglePause flips the pause request on the server.
func (c *Client) TogglePause(ctx context.Context) (*domain.Status, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.TogglePause(callCtx)
	if err != nil {
		return nil, fmt.Errorf("toggle pause: %w", err)
	}

	status, _ := api.StatusFromStruct(resp)

	return status, nil
}

// GetStatus retrieves the current status.
func (c *Client) GetStatus(ctx context.Context) (*domain.Status, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	status, _ := api.StatusFromStruct(resp)

	return status, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The actor, when
// known, is attached as outgoing metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.actor != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, api.ActorMetadataKey, c.actor)
	}

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
