package conversation

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name, mirroring what
// protoc-gen-go-grpc would derive from a "service ConversationService" in
// a .proto file.
const ServiceName = "conversation.ConversationService"

// ConversationServiceClient is the client API for ConversationService.
type ConversationServiceClient interface {
	Conversation(ctx context.Context, opts ...grpc.CallOption) (ConversationService_ConversationClient, error)
}

type conversationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewConversationServiceClient wraps a grpc.ClientConn (or anything
// implementing grpc.ClientConnInterface) to dial the Conversation RPC.
func NewConversationServiceClient(cc grpc.ClientConnInterface) ConversationServiceClient {
	return &conversationServiceClient{cc}
}

func (c *conversationServiceClient) Conversation(ctx context.Context, opts ...grpc.CallOption) (ConversationService_ConversationClient, error) {
	stream, err := c.cc.NewStream(ctx, &ConversationService_ServiceDesc.Streams[0], "/"+ServiceName+"/Conversation", opts...)
	if err != nil {
		return nil, err
	}
	return &conversationServiceConversationClient{stream}, nil
}

// ConversationService_ConversationClient is the streaming handle a Node
// holds for the lifetime of its connection to the Coordinator.
type ConversationService_ConversationClient interface {
	Send(*Envelope) error
	Recv() (*Envelope, error)
	grpc.ClientStream
}

type conversationServiceConversationClient struct {
	grpc.ClientStream
}

func (x *conversationServiceConversationClient) Send(m *Envelope) error {
	return x.ClientStream.SendMsg(m)
}

func (x *conversationServiceConversationClient) Recv() (*Envelope, error) {
	m := new(Envelope)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ConversationServiceServer is the server API for ConversationService.
type ConversationServiceServer interface {
	Conversation(ConversationService_ConversationServer) error
}

// UnimplementedConversationServiceServer can be embedded to satisfy the
// interface for servers that don't implement every method.
type UnimplementedConversationServiceServer struct{}

func (UnimplementedConversationServiceServer) Conversation(ConversationService_ConversationServer) error {
	return status.Errorf(codes.Unimplemented, "method Conversation not implemented")
}

// ConversationService_ConversationServer is the streaming handle the
// Coordinator holds for the lifetime of one Node's connection.
type ConversationService_ConversationServer interface {
	Send(*Envelope) error
	Recv() (*Envelope, error)
	grpc.ServerStream
}

type conversationServiceConversationServer struct {
	grpc.ServerStream
}

func (x *conversationServiceConversationServer) Send(m *Envelope) error {
	return x.ServerStream.SendMsg(m)
}

func (x *conversationServiceConversationServer) Recv() (*Envelope, error) {
	m := new(Envelope)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _ConversationService_Conversation_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(ConversationServiceServer).Conversation(&conversationServiceConversationServer{stream})
}

// ConversationService_ServiceDesc is the grpc.ServiceDesc for
// ConversationService.
var ConversationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConversationServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Conversation",
			Handler:       _ConversationService_Conversation_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "conversation.proto",
}

// RegisterConversationServiceServer registers srv with s.
func RegisterConversationServiceServer(s grpc.ServiceRegistrar, srv ConversationServiceServer) {
	s.RegisterService(&ConversationService_ServiceDesc, srv)
}
