package conversation

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec marshals gRPC messages as JSON. It registers itself under the
// name gRPC uses by default for every call ("proto"), overriding the
// binary protobuf codec grpc-go wires up at its own init time — package
// init order guarantees ours runs last since this package imports grpc.
//
// The wire bytes of Envelope are explicitly out of scope for this system
// (spec.md §1); only the JSON shape documented on each message type in
// this package is part of the contract.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "proto"
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
