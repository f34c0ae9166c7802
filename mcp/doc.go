// Package mcp declares the wire-level protocol vocabulary shared by the
// registry, the dispatcher and the transports: method names, negotiation
// payloads, tool and resource descriptors, and result shapes.
//
// The package is deliberately thin. It carries no behavior beyond small
// result constructors; all sequencing and validation live in the dispatcher
// and the schema package respectively.
package mcp
