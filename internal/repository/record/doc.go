// Package record stores the build record of the latest setup run.
//
// A record captures what the driver decided (mode, arguments) and what it
// staged. It is encoded as protobuf JSON of a structpb.Struct so the file
// stays readable by protobuf tooling without generated types.
package record
