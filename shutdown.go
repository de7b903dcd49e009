package procman

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// shutdownDestroyer kills registered still-alive processes when this
// program receives SIGINT or SIGTERM, then re-raises the signal so the
// program's own handling proceeds. Processes opt in via
// Builder.SetDestroyOnShutdown and are registered only while alive.
var shutdownDestroyer struct {
	once  sync.Once
	mu    sync.Mutex
	procs map[*Process]struct{}
}

func registerForShutdownDestroy(p *Process) {
	shutdownDestroyer.mu.Lock()
	if shutdownDestroyer.procs == nil {
		shutdownDestroyer.procs = make(map[*Process]struct{})
	}
	shutdownDestroyer.procs[p] = struct{}{}
	shutdownDestroyer.mu.Unlock()

	shutdownDestroyer.once.Do(func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			slog.Info("Shutdown: going to kill destroyOnShutdown processes", "signal", sig.String())

			shutdownDestroyer.mu.Lock()
			procs := make([]*Process, 0, len(shutdownDestroyer.procs))
			for proc := range shutdownDestroyer.procs {
				procs = append(procs, proc)
			}
			shutdownDestroyer.mu.Unlock()

			for _, proc := range procs {
				if proc.IsAlive() {
					proc.killProcessGroup()
				}
			}

			signal.Stop(sigCh)
			if s, ok := sig.(syscall.Signal); ok {
				_ = syscall.Kill(os.Getpid(), s)
			}
		}()
	})
}

func deregisterFromShutdownDestroy(p *Process) {
	shutdownDestroyer.mu.Lock()
	delete(shutdownDestroyer.procs, p)
	shutdownDestroyer.mu.Unlock()
}
