// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// Both the bundle configuration and the lock file are validated the same way:
//
//  1. Compile the embedded schema
//  2. Compile (or encode) user data and unify with the schema definition
//  3. Validate and decode to a Go struct
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	result, err := cueutil.ParseAndDecode[fileConfig](
//	    schema,
//	    data,
//	    "#Config",
//	    cueutil.WithFilename("bundlesync.cue"),
//	)
//	if err != nil {
//	    return nil, err // error includes the CUE path of the offending field
//	}
//	return result.Value, nil
package cueutil
