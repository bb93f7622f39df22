package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/ir"
)

// CompileFile compiles every set declared under opset in a CUE file, in
// declaration order.
func CompileFile(path string) ([]catalog.OpSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read operator set: %w", err)
	}
	return CompileSource(src, path)
}

// CompileSource compiles CUE source text. filename is used in positions.
func CompileSource(src []byte, filename string) ([]catalog.OpSet, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("opset"))
	if !root.Exists() {
		return nil, &CompileError{Field: "opset", Message: "no opset struct declared", Pos: v.Pos()}
	}
	it, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var sets []catalog.OpSet
	for it.Next() {
		set, err := CompileOpSet(it.Value())
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, &CompileError{Field: "opset", Message: "at least one operator set is required", Pos: root.Pos()}
	}
	return sets, nil
}

// CompileOpSet parses a CUE value into an OpSet. The set name is the last
// label of the value's path.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`opset: small: { int: "basic", bool: ["cmp"] }`)
//	set, err := CompileOpSet(v.LookupPath(cue.ParsePath("opset.small")))
func CompileOpSet(v cue.Value) (catalog.OpSet, error) {
	if err := v.Err(); err != nil {
		return catalog.OpSet{}, formatCUEError(err)
	}

	var set catalog.OpSet
	if labels := v.Path().Selectors(); len(labels) > 0 {
		set.Name = labels[len(labels)-1].String()
	}

	it, err := v.Fields()
	if err != nil {
		return catalog.OpSet{}, formatCUEError(err)
	}
	for it.Next() {
		switch label := it.Selector().String(); label {
		case "int", "bool":
		default:
			return catalog.OpSet{}, &CompileError{
				Field:   label,
				Message: "unknown field (want int or bool)",
				Pos:     it.Value().Pos(),
			}
		}
	}

	if set.Int, err = compileBucket(v, "int", ir.KindInt); err != nil {
		return catalog.OpSet{}, err
	}
	if set.Bool, err = compileBucket(v, "bool", ir.KindBool); err != nil {
		return catalog.OpSet{}, err
	}
	if err := set.Validate(set.Name); err != nil {
		if ce, ok := err.(*catalog.ConfigError); ok {
			return catalog.OpSet{}, &CompileError{Field: ce.Entry, Message: ce.Message, Pos: v.Pos()}
		}
		return catalog.OpSet{}, err
	}
	return set, nil
}

func compileBucket(v cue.Value, bucket string, kind ir.ValueKind) ([]ir.OpKind, error) {
	bv := v.LookupPath(cue.ParsePath(bucket))
	if !bv.Exists() {
		ops, _ := catalog.PresetOps(kind, "full")
		return ops, nil
	}

	if name, err := bv.String(); err == nil {
		ops, ok := catalog.PresetOps(kind, name)
		if !ok {
			return nil, &CompileError{
				Field:   bucket,
				Message: fmt.Sprintf("unknown preset %q (want one of %v)", name, catalog.PresetNames(kind)),
				Pos:     bv.Pos(),
			}
		}
		return ops, nil
	}

	list, err := bv.List()
	if err != nil {
		return nil, &CompileError{
			Field:   bucket,
			Message: "expected a preset name or a list of operators",
			Pos:     bv.Pos(),
		}
	}

	var ops []ir.OpKind
	for i := 0; list.Next(); i++ {
		field := fmt.Sprintf("%s[%d]", bucket, i)
		item := list.Value()
		name, err := entryName(item)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: item.Pos()}
		}
		k, err := catalog.Lookup(kind, name)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: item.Pos()}
		}
		ops = append(ops, k)
	}
	return ops, nil
}

// entryName accepts a string or a struct with the single field op_name.
func entryName(v cue.Value) (string, error) {
	if s, err := v.String(); err == nil {
		return s, nil
	}
	if v.IncompleteKind() != cue.StructKind {
		return "", fmt.Errorf("operator entry must be a name or {op_name: name}")
	}
	it, err := v.Fields()
	if err != nil {
		return "", err
	}
	n := 0
	for it.Next() {
		if it.Selector().String() != "op_name" {
			return "", fmt.Errorf("operator entry must have exactly the key op_name")
		}
		n++
	}
	if n != 1 {
		return "", fmt.Errorf("operator entry must have exactly the key op_name")
	}
	s, err := v.LookupPath(cue.ParsePath("op_name")).String()
	if err != nil {
		return "", fmt.Errorf("op_name must be a string")
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Report the first error with position info.
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
