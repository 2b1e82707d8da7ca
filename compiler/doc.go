// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package compiler turns Blueprints into engine-ready workflow graphs.

A Compiler validates a Blueprint against a node type registry, converts each
node into its target template, groups edges into branch lanes and assigns a
left-to-right canvas layout. Compilation is synchronous and deterministic:
node order follows the Blueprint and lane order follows the edge list.

Any failure after validation is recovered and reported as a single
compilation_error in the returned Result; Compile never panics.
*/
package compiler
