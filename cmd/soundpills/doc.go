// Package main implements the soundpills command line interface.
//
// The root command loads configuration once per invocation and exposes
// subcommands to run a listening session (interactive canvas or headless),
// check the environment, inspect the content snapshot, browse the session
// journal, and scaffold configuration files.
package main
