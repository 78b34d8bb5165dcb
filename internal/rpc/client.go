package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/ludics-engine/internal/correspondence"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/engine"
	"github.com/danielpatrickdp/ludics-engine/internal/legality"
	"github.com/danielpatrickdp/ludics-engine/internal/propagation"
	"github.com/danielpatrickdp/ludics-engine/internal/typing"
)

// #region client
// Client calls a remote engine.
type Client struct {
	conn  grpc.ClientConnInterface
	close func() error
}

// NewClient dials addr without transport security. Extra options are
// appended to the defaults.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, close: conn.Close}, nil
}

// NewClientWithConn uses an existing connection, which the caller closes.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Close releases a connection opened by NewClient.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

func (c *Client) Step(ctx context.Context, req *StepRequest) (*dispute.Play, error) {
	return invoke[dispute.Play](ctx, c.conn, methodStep, req)
}

func (c *Client) CheckLegality(ctx context.Context, req *LegalityRequest) (*legality.Report, error) {
	return invoke[legality.Report](ctx, c.conn, methodLegality, req)
}

func (c *Client) CheckInnocence(ctx context.Context, req *StrategyRequest) (*InnocenceReply, error) {
	return invoke[InnocenceReply](ctx, c.conn, methodInnocence, req)
}

func (c *Client) CheckPropagation(ctx context.Context, req *StrategyRequest) (*propagation.Report, error) {
	return invoke[propagation.Report](ctx, c.conn, methodPropagation, req)
}

func (c *Client) CheckCorrespondence(ctx context.Context, req *CounterRequest) (*correspondence.Report, error) {
	return invoke[correspondence.Report](ctx, c.conn, methodCorrespondence, req)
}

func (c *Client) CheckType(ctx context.Context, req *TypeRequest) (*typing.Result, error) {
	return invoke[typing.Result](ctx, c.conn, methodType, req)
}

func (c *Client) Analyze(ctx context.Context, req *CounterRequest) (*engine.Analysis, error) {
	return invoke[engine.Analysis](ctx, c.conn, methodAnalyze, req)
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, req any) (*Resp, error) {
	in, err := encode(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	resp := new(Resp)
	if err := decode(out, resp); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return resp, nil
}

// #endregion client
