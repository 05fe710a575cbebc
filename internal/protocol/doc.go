// Package protocol defines the wire format for daemon-mode requests.
//
// Each message is a newline-delimited JSON envelope carrying a command
// name and an optional payload. A connection carries exactly one
// request-response exchange: the client sends one envelope, the server
// answers with an "ok" or "error" envelope and closes the connection.
package protocol
