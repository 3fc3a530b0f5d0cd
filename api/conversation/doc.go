/*
Package conversation defines the wire schema and gRPC service for the
bidirectional stream between a Node agent and the Coordinator.

The schema mirrors what a .proto-generated package would expose: tagged
unions for Envelope/ServerCommand/ServerResponse/NodeCommand/NodeResponse
implemented as Go interfaces with a sealed set of implementations, and a
generated-style client/server pair around the single Conversation RPC.

Unlike a protoc-generated package, messages are marshaled as JSON rather
than binary protobuf: the wire-format bytes are explicitly out of scope
for this system (only the variants and their fields matter), so a JSON
codec registered under the standard "proto" content-subtype name keeps
every other gRPC mechanic — streaming, flow control, deadlines — intact
without requiring a protoc toolchain to regenerate bindings.
*/
package conversation
