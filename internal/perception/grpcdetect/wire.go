package grpcdetect

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/interview-engine/internal/perception"
	"github.com/danielpatrickdp/interview-engine/internal/scoring"
)

// Wire shape, both directions as google.protobuf.Struct:
//
//	request:  {"width": 640, "height": 480, "format": "jpeg", "data": "<base64>"}
//	response: {"faces": [{"expressions": {"happy": 0.82, "neutral": 0.1}}]}

// #region frame
func encodeFrame(f perception.Frame) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"width":  f.Width,
		"height": f.Height,
		"format": f.Format,
		"data":   f.Data,
	})
}

func decodeFrame(s *structpb.Struct) (perception.Frame, error) {
	fields := s.GetFields()
	f := perception.Frame{
		Width:  int(fields["width"].GetNumberValue()),
		Height: int(fields["height"].GetNumberValue()),
		Format: fields["format"].GetStringValue(),
	}
	if raw := fields["data"].GetStringValue(); raw != "" {
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return perception.Frame{}, fmt.Errorf("decode frame data: %w", err)
		}
		f.Data = data
	}
	return f, nil
}
// #endregion frame

// #region faces
func encodeFaces(faces []perception.Face) (*structpb.Struct, error) {
	list := make([]any, 0, len(faces))
	for _, face := range faces {
		exprs := make(map[string]any, len(face.Expressions))
		for label, v := range face.Expressions {
			exprs[string(label)] = v
		}
		list = append(list, map[string]any{"expressions": exprs})
	}
	return structpb.NewStruct(map[string]any{"faces": list})
}

// decodeFaces ignores entries that are not objects. Unknown labels are kept; the tracker only
// ranks the fixed label set.
func decodeFaces(s *structpb.Struct) []perception.Face {
	values := s.GetFields()["faces"].GetListValue().GetValues()
	faces := make([]perception.Face, 0, len(values))
	for _, v := range values {
		obj := v.GetStructValue()
		if obj == nil {
			continue
		}
		exprs := obj.GetFields()["expressions"].GetStructValue().GetFields()
		face := perception.Face{Expressions: make(map[scoring.Expression]float64, len(exprs))}
		for label, iv := range exprs {
			face.Expressions[scoring.Expression(label)] = iv.GetNumberValue()
		}
		faces = append(faces, face)
	}
	return faces
}
// #endregion faces
