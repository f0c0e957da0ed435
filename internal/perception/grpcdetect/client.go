package grpcdetect

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/interview-engine/internal/perception"
)

// DetectMethod is the full RPC name served by the face-detection sidecar.
const DetectMethod = "/interview.perception.v1.FaceDetector/Detect"

// #region client-struct
// Client wraps the gRPC connection to the face-detection service and implements
// perception.Detector.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}
// #endregion client-struct

// #region constructor
// NewClient connects to the face-detection gRPC server.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection.
// Used for testing without a real gRPC server.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}
// #endregion constructor

// #region close
// Close shuts down the gRPC connection if the client owns one.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
// #endregion close

// #region detect
// Detect sends one frame to the service and returns the faces it found.
func (c *Client) Detect(ctx context.Context, frame perception.Frame) ([]perception.Face, error) {
	req, err := encodeFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, DetectMethod, req, resp); err != nil {
		return nil, fmt.Errorf("detect rpc: %w", err)
	}
	return decodeFaces(resp), nil
}
// #endregion detect
