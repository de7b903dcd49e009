package procman

// Listener is notified when a managed process terminates. Exactly one of
// the two methods is invoked, exactly once per Process instance, on
// whichever goroutine settles the process result.
type Listener interface {
	// OnProcessComplete is called when the process exits with a
	// successful exit value (per the success-exit-value checker).
	OnProcessComplete(exitValue int)

	// OnProcessFailed is called when the process launch or execution
	// failed; exitValue may be a sentinel when no real code exists.
	OnProcessFailed(exitValue int, err error)
}
