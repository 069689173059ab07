// Copyright (c) topicflow Authors.
// Licensed under the MIT License.

/*
Package types provides the shared types of topicflow.

# Overview

types is the lowest-level package. It depends on no internal package and
gives config, workflow, workflow/dsl and stages one error contract, so that callers
can tell a configuration problem apart from a resource or stage failure
without string matching.

# Core types

  - Error / ErrorCode - structured error with task kind, field path and line
  - Advisory          - non-fatal report produced while compiling or running

# Helpers

  - IsConfigurationError / IsResourceError / IsStageFailure
  - GetErrorCode / AsError
  - NewMissingFieldError / NewTypeMismatchError / NewInvalidValueError
*/
package types
