// Package rpc exposes the admission engine over gRPC.
//
// The service is hand-written rather than generated from a .proto: no
// protoc toolchain runs as part of building this module, so a
// jsonCodec implementing encoding.Codec carries request/response structs
// as JSON instead of wire-format protobuf. google.golang.org/protobuf
// remains an indirect dependency of google.golang.org/grpc itself; this
// package never imports it directly.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

// jsonCodec implements encoding.Codec by delegating to encoding/json. It is
// registered globally under "json" at package init, the same mechanism
// grpc's own generated code uses to register "proto".
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
