// Package procman launches and supervises a single external OS process:
// daemons, database servers, encoders, CLI tools. It wires the process's
// stdout/stderr into pluggable line sinks (slog, a rolling console buffer,
// caller-provided consumers), detects completion or failure exactly once,
// and offers blocking and non-blocking ways to wait for termination or for
// a specific message to appear in the combined console output.
//
// A Process is built with Builder and supervises exactly one launch for the
// lifetime of the instance. Use a fresh instance to launch again.
//
//	p, err := procman.NewBuilder("mysqld", "--no-defaults").
//		SetWorkingDirectory("/var/lib/mysql").
//		Build()
//	if err != nil { ... }
//	ok, err := p.StartAndWaitForConsoleMessageMaxMs("ready for connections", 30000)
//
// Output handling is line oriented; procman is not suitable for programs
// that emit binary data on stdout.
package procman
