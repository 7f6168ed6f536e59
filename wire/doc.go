// Package wire defines the portable encoding of logical plans and
// expressions.
//
// Conversion happens in two steps. An Encoder turns a logical tree into wire
// nodes (ExprNode, PlanNode and friends), and Marshal or ToJSON serializes
// the nodes. Decoding reverses both steps: Unmarshal or FromJSON parses the
// input, and a Decoder rebuilds the logical tree, resolving function names
// through a logical.FunctionRegistry and custom nodes and data sources
// through an ExtensionCodec.
//
// The binary form is MessagePack with named keys; the text form is JSON
// with the same keys. Both are deterministic and strict: unknown keys,
// trailing data, missing variants and excessive nesting are rejected with
// ErrMalformedWireData.
//
// Example:
//
//	node, err := wire.ToPlanNode(plan, codec)
//	if err != nil {
//	    return err
//	}
//	data, err := wire.Marshal(node)
package wire
