// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bundlesync.
//
// Command handlers render their own output and failures, then return an
// *ExitError so the process exit code is decided in one place.
package cmd
