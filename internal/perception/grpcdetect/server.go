package grpcdetect

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/interview-engine/internal/perception"
)

// #region service-desc
// faceDetectorServer is the handler type the service descriptor dispatches to.
type faceDetectorServer interface {
	detect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "interview.perception.v1.FaceDetector",
	HandlerType: (*faceDetectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Detect",
			Handler:    detectHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "interview/perception/v1/detector.proto",
}

func detectHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(faceDetectorServer).detect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: DetectMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(faceDetectorServer).detect(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
// #endregion service-desc

// #region register
// Register serves d on s under the FaceDetector service name, so any in-process Detector can be
// exposed to remote sessions.
func Register(s grpc.ServiceRegistrar, d perception.Detector) {
	s.RegisterService(&serviceDesc, &detectorService{detector: d})
}

type detectorService struct {
	detector perception.Detector
}

func (s *detectorService) detect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	frame, err := decodeFrame(req)
	if err != nil {
		return nil, err
	}
	faces, err := s.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	return encodeFaces(faces)
}
// #endregion register
