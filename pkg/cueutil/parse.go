// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseResult contains the result of a successful CUE parse operation.
type ParseResult[T any] struct {
	// Value is the decoded Go struct.
	Value *T

	// Unified is the unified CUE value, available for callers that need to
	// inspect fields the Go struct does not carry.
	Unified cue.Value
}

// ParseAndDecode compiles schema, compiles data (CUE or JSON source), unifies
// it with the definition at schemaPath, validates and decodes it into T.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := applyOptions(opts)

	if err := CheckFileSize(data, options.maxFileSize, options.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaRoot, err := compileSchema(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	userValue := ctx.CompileBytes(data, cue.Filename(options.filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), options.filename)
	}

	return unifyAndDecode[T](schemaRoot, userValue, options)
}

// DecodeValue validates an already-decoded Go value (for example a map read
// from TOML) against the definition at schemaPath and decodes it into T.
// Defaults declared in the schema are applied exactly as for CUE input.
func DecodeValue[T any](schema []byte, value any, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := applyOptions(opts)

	ctx := cuecontext.New()
	schemaRoot, err := compileSchema(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	userValue := ctx.Encode(value)
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), options.filename)
	}

	return unifyAndDecode[T](schemaRoot, userValue, options)
}

func applyOptions(opts []Option) parseOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.filename == "" {
		options.filename = "<input>"
	}
	return options
}

func compileSchema(ctx *cue.Context, schema []byte, schemaPath string) (cue.Value, error) {
	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}
	return schemaRoot, nil
}

func unifyAndDecode[T any](schemaRoot, userValue cue.Value, options parseOptions) (*ParseResult[T], error) {
	unified := schemaRoot.Unify(userValue)

	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, options.filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, options.filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified,
	}, nil
}
