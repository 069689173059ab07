// Copyright (c) topicflow Authors.
// Licensed under the MIT License.

/*
Package stages implements the stage handlers that execute compiled tasks.

# Handlers

  - Converter: writes source files as engine import records and runs
    "mallet import-file".
  - Trainer: runs "mallet train-topics" and keeps the instance pipe for
    later vocabulary reuse.
  - Inferencer: runs "mallet infer-topics" once per converted input.
  - Similarity: pairwise cosine similarity over inferred doc-topic rows.

The topic-model engine is an external process reached through the Engine
interface; MalletEngine is the exec-based implementation. Layout maps
space, source and output names to filesystem paths.

NewHandlers bundles the four handlers into a workflow.Handlers value for
the executor.
*/
package stages
