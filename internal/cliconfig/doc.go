// Package cliconfig loads restauth CLI profiles and turns them into
// authenticators and HTTP clients.
//
// Settings come from a TOML file, RESTAUTH_* environment variables, and
// flags, in increasing precedence.
package cliconfig
