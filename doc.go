// Package plancodec converts logical query plans and the expressions inside
// them to a portable binary form and back.
//
// The package is the serialization boundary of a query engine:
//   - Every plan and expression variant round-trips to an equal value
//   - Custom plan nodes and table data sources go through a pluggable
//     ExtensionCodec, and fail closed when no codec handles them
//   - User-defined functions travel by name and are re-resolved against a
//     FunctionRegistry (usually a catalog.Session) at decode time
//   - Untrusted input cannot crash the decoder or recurse without bound
//
// # Quick Start
//
//	x := logical.Lt(logical.Col("a"), logical.Lit(int64(5)))
//	data, err := plancodec.ExprToBytes(x)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	back, err := plancodec.ExprFromBytes(data)
//
// Plans that scan tables need a codec that knows the data source:
//
//	data, err := plancodec.PlanToBytesWithCodec(plan, memtable.Codec{})
//	plan, err := plancodec.PlanFromBytesWithCodec(ctx, data, sess, memtable.Codec{})
//
// # Wire Forms
//
// The binary form is MessagePack with named keys and one tagged node per
// plan or expression variant. Encoding is deterministic: equal values give
// equal bytes. The JSON text form (PlanToJSON, ExprToJSON) carries the same
// nodes with the same camelCase keys and is meant for debugging:
//
//	plancodec.PlanToJSON(&logical.EmptyRelation{}) // {"emptyRelation":{}}
//
// # Encode Self-Check
//
// ExprToBytes decodes its own output before returning it, resolving every
// function name to a placeholder that is never invoked. Output that does not
// decode, for example because it nests deeper than MaxDepth, is discarded
// and ErrEncodeSelfCheckFailed is returned instead.
//
// # Errors
//
// All failures can be tested with errors.Is:
//   - ErrMalformedWireData: input is empty, truncated, has trailing data,
//     unknown tags, invalid values or excessive nesting
//   - ErrUnresolvedFunction: a function name the registry does not know
//   - ErrUnsupportedExtension: no codec handles a custom node or data source
//   - ErrEncodeSelfCheckFailed: see above
//
// Failures reported by a codec or registry arrive as *CollaboratorError,
// which unwraps to the collaborator's own error.
//
// # Serving Plans
//
// NewServer registers an Arrow Flight service on a grpc.Server whose
// DoAction decodes, encodes and validates plans for remote clients. See the
// flight package for the action types.
//
// # Logging
//
// The package logs through log/slog. Package-level functions use
// slog.Default(); a Serializer created with NewSerializer uses Config.Logger
// or a logger built from Config.LogLevel.
//
// # Concurrency
//
// Serializer holds no mutable state. Registries and codecs are borrowed for
// the duration of a call and must be safe for concurrent reads when shared.
package plancodec
