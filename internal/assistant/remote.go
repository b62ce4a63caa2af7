package assistant

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/wildscan/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of the inference service. Requests and responses are
// google.protobuf.Struct messages.
const (
	ServiceName    = "wildscan.assistant.v1.Assistant"
	classifyMethod = "/" + ServiceName + "/Classify"
	respondMethod  = "/" + ServiceName + "/Respond"
)

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
	errMissingField             = errors.New("response missing field")
)

// RemoteConfig holds configuration for the gRPC client.
type RemoteConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	RequestTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
	// DialOptions are appended to the defaults.
	DialOptions []grpc.DialOption
}

// DefaultRemoteConfig returns default configuration for addr.
func DefaultRemoteConfig(addr string) RemoteConfig {
	return RemoteConfig{
		Address:          addr,
		ConnectTimeout:   5 * time.Second,
		RequestTimeout:   30 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// RemoteClient is an Assistant backed by a gRPC inference service.
type RemoteClient struct {
	conn    *grpc.ClientConn
	addr    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRemoteClient connects to the inference service and waits until the
// connection is ready so bad endpoints fail at startup.
func NewRemoteClient(cfg RemoteConfig, logger *slog.Logger) (*RemoteClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kacp := keepalive.ClientParameters{
		Time:                cfg.KeepaliveTime,
		Timeout:             cfg.KeepaliveTimeout,
		PermitWithoutStream: false,
	}
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(kacp),
	}, cfg.DialOptions...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to assistant at %s: %w", cfg.Address, err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close gRPC connection after readiness failure", "error", closeErr)
		}
		return nil, fmt.Errorf("%w: %s not ready: %v", ErrUnavailable, cfg.Address, err)
	}

	logger.Info("Connected to assistant service", "address", cfg.Address)

	return &RemoteClient{
		conn:    conn,
		addr:    cfg.Address,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

func (c *RemoteClient) invoke(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		c.logger.Warn("Assistant call failed", "method", method, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	return out, nil
}

// Classify sends the photo, base64 encoded, and returns the service's answer.
func (c *RemoteClient) Classify(ctx context.Context, photo []byte) (Identification, error) {
	out, err := c.invoke(ctx, classifyMethod, map[string]any{
		"photo": base64.StdEncoding.EncodeToString(photo),
	})
	if err != nil {
		return Identification{}, err
	}

	fields := out.GetFields()
	id := fields["animal_id"].GetStringValue()
	if id == "" {
		return Identification{}, fmt.Errorf("%w: animal_id", errMissingField)
	}
	return Identification{
		AnimalID: id,
		Status:   domain.ConservationStatus(fields["conservation_status"].GetStringValue()),
	}, nil
}

// Respond asks the service for a chat reply.
func (c *RemoteClient) Respond(ctx context.Context, text string, hasImage bool) (string, error) {
	out, err := c.invoke(ctx, respondMethod, map[string]any{
		"text":      text,
		"has_image": hasImage,
	})
	if err != nil {
		return "", err
	}

	reply, ok := out.GetFields()["reply"]
	if !ok {
		return "", fmt.Errorf("%w: reply", errMissingField)
	}
	return reply.GetStringValue(), nil
}

// Close closes the gRPC connection.
func (c *RemoteClient) Close() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("failed to close gRPC connection", "error", err)
		}
	}
}
