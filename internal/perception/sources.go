package perception

import "context"

// NoCamera is a FrameSource for sessions without a camera. Every sample is "no data".
type NoCamera struct{}

func (NoCamera) NextFrame(context.Context) (Frame, error) {
	return Frame{}, ErrNoFrame
}

// NoFaces is a Detector that never finds a face. Used when no detection backend is configured.
type NoFaces struct{}

func (NoFaces) Detect(context.Context, Frame) ([]Face, error) {
	return nil, nil
}
