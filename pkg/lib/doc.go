// Package lib provides a Go SDK to embed the fmsched background task scheduler
// in a file manager.
//
// A [Client] runs file operations, plugins, processes and size calculations on
// two bounded worker pools and keeps a live registry of their progress that a
// UI can render at any time without blocking the workers.
//
// # Quick Start
//
//	client, err := lib.New(lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client.Start()
//	defer client.Stop()
//
//	id, err := client.Submit(lib.FileOp{
//	    Verb:        lib.FileVerbCopy,
//	    Sources:     []string{"/home/me/photos"},
//	    Destination: "/mnt/backup",
//	}, lib.PriorityNormal, nil)
//
//	for range client.Changes() {
//	    sum := client.Summary()
//	    fmt.Printf("%d%% (%d left)\n", sum.Percent, sum.Left)
//	    if sum.Running == 0 {
//	        break
//	    }
//	}
//
// # Pools
//
// File operations and processes run on the macro pool, plugins and size
// calculations on the micro pool. Every pool runs its queued tasks from the
// highest priority to the lowest, in submission order inside a priority.
// Priorities never interrupt running tasks.
//
// # Cancellation
//
// [Client.Cancel] removes queued tasks before they run and asks running tasks
// to stop. Blocking and detached processes are the exception: detached
// processes keep running when their task is cancelled.
//
// # Errors
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrPoolStopped]: The client has been stopped.
//   - [ErrNotValid]: Invalid input.
//
// # Testing
//
// Use [PluginRuntimeFake] to run plugin tasks without plugin executables, and a
// temporary [Config].TrashDir so removals don't touch the user trash.
package lib
