package grpcnode

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// recordingStream is a minimal grpc.ServerStream keeping every sent frame.
type recordingStream struct {
	sent []*structpb.Struct
}

func (r *recordingStream) SetHeader(metadata.MD) error  { return nil }
func (r *recordingStream) SendHeader(metadata.MD) error { return nil }
func (r *recordingStream) SetTrailer(metadata.MD)       {}
func (r *recordingStream) Context() context.Context     { return context.Background() }
func (r *recordingStream) RecvMsg(any) error            { return io.EOF }

func (r *recordingStream) SendMsg(m any) error {
	r.sent = append(r.sent, m.(*structpb.Struct))
	return nil
}

// stuckStream is a grpc.ClientStream whose writes block until its context ends.
type stuckStream struct {
	grpc.ClientStream
	ctx  context.Context
	sent int
}

func (s *stuckStream) SendMsg(any) error {
	s.sent++
	<-s.ctx.Done()
	return s.ctx.Err()
}
