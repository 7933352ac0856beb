// Package application wires the conductor loader, the snapshot store, the
// inspection API and the HTTP server together for the serve command, keeping
// the main package focused on CLI parsing and orchestration.
package application
