// Package toolgate provides a governance layer for tools that act on a
// developer's machine on behalf of an automated agent.
//
// Every side effect passes through one of the engines composed by the
// Service facade:
//
//   - tracker    – tracked execution, path validation and tool registry
//   - approval   – risk, compliance and workflow driven human approval
//   - diff       – staged file changes with review, accept and rollback
//   - batch      – approved command sessions with progress reporting
//
// Decisions are recorded in a hash chained audit log and published on an
// event bus:
//
//	srv, _ := toolgate.New(ctx, toolgate.WithConfig(cfg))
//	session, wait, err := srv.RunBatch(ctx, []string{"go test ./..."}, "/workspace", batch.ExecuteOptions{})
//	done, _ := wait(ctx)
//
// For more details see the individual sub-packages.
package toolgate
