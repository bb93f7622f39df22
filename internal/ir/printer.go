package ir

import (
	"fmt"
	"io"
	"strings"
)

// Print writes the textual form of the attached program to w. Values are
// numbered in program order, so structurally identical programs print
// identically.
//
//	func @kb_and(%lhs: (int, int), %rhs: (int, int)) {
//	  %0 = get %lhs[0] : int
//	  %1 = and %0, %0 : int
//	  %2 = make %1, %1 : abs
//	  return %2
//	}
func Print(w io.Writer, f *Function) error {
	_, err := io.WriteString(w, Format(f))
	return err
}

// Format returns the textual form of f.
func Format(f *Function) string {
	var b strings.Builder
	numbering := number(f)

	b.WriteString("func @")
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fields := make([]string, len(a.Fields))
		for j, k := range a.Fields {
			fields[j] = k.String()
		}
		fmt.Fprintf(&b, "%%%s: (%s)", argName(f, i), strings.Join(fields, ", "))
	}
	b.WriteString(") {\n")

	for op := f.First(); op != nil; op = op.Next() {
		b.WriteString("  ")
		b.WriteString(formatOp(f, op, numbering))
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.String()
}

// FormatOp returns the single-line form of op using program-order value
// numbers of f.
func FormatOp(f *Function, op *Operation) string {
	return formatOp(f, op, number(f))
}

func formatOp(f *Function, op *Operation, numbering map[ValueID]int) string {
	var parts []string
	switch op.Kind {
	case OpConstant:
		parts = append(parts, fmt.Sprintf("%d", op.Attr))
	case OpBoolConstant:
		parts = append(parts, fmt.Sprintf("%t", op.Attr != 0))
	case OpGet:
		parts = append(parts, fmt.Sprintf("%%%s[%d]", argName(f, op.Arg), op.Attr))
	case OpCmp:
		parts = append(parts, op.Predicate().String())
	}

	operands := make([]string, len(op.operands))
	for i, v := range op.operands {
		operands[i] = valueName(v, numbering)
	}
	if len(operands) > 0 {
		parts = append(parts, strings.Join(operands, ", "))
	}

	body := op.Kind.String()
	if len(parts) > 0 {
		body += " " + strings.Join(parts, " ")
	}
	if op.result == NoValue {
		return body
	}
	return fmt.Sprintf("%s = %s : %s", valueName(op.result, numbering), body, f.Kind(op.result))
}

func valueName(v ValueID, numbering map[ValueID]int) string {
	if n, ok := numbering[v]; ok {
		return fmt.Sprintf("%%%d", n)
	}
	return fmt.Sprintf("%%?%d", v)
}

func argName(f *Function, i int) string {
	if i < len(f.Args) && f.Args[i].Name != "" {
		return f.Args[i].Name
	}
	return fmt.Sprintf("arg%d", i)
}
