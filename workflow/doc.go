// Copyright (c) topicflow Authors.
// Licensed under the MIT License.

/*
Package workflow provides the task model and the sequential pipeline executor.

# Overview

A run is a flat Plan of Tasks compiled by package workflow/dsl. Tasks form
a closed tagged union keyed by Kind; every dispatch point switches over the
same four kinds. The Executor owns the run's scratch Workspace: it creates
it before the first task and removes it exactly once, on success and on
failure alike, then reports the first failure to the caller.

# Core types

  - Kind / Task          - closed set of task kinds with kind-specific specs
  - Plan                 - compiled, dependency-ordered task list
  - Workspace            - run-scoped scratch directory
  - Handler / Handlers   - one stage handler per kind
  - Executor             - sequential runner with state machine and teardown
  - Announcer / Event    - progress reporting (console, zap, fan-out)
  - ExecutionHistory     - per-run record of tasks and state transitions

# State machine

	Idle → WorkspaceCreated → Running(1) … Running(n) → WorkspaceTornDown → Done
	                               └─ failure ─→ WorkspaceTornDown → Failed
*/
package workflow
