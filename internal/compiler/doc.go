// Package compiler compiles operator-set definitions written in CUE into
// catalog.OpSet values, and validates operator sets as a whole.
//
// A CUE file declares one or more sets under the top-level opset struct:
//
//	opset: bitwise: {
//		int:  ["neg", "and", "transfer.or", {op_name: "xor"}]
//		bool: "basic"
//	}
//
// Bucket values follow the YAML encoding accepted by catalog.ParseOpSet: a
// preset name or a list of entries, each entry an operator identifier or
// the historical {op_name: <identifier>} wrapper.
package compiler
