// Package pipeline implements the stages between an editor snapshot and the
// preview sink.
//
// The package holds the stage contracts and the two stages that do not
// depend on a particular typesetting engine:
//   - Resource assembly: source, bibliography and images into an immutable Unit
//   - Output formatting: a rendered Document into preview markup or bytes
//
// The Renderer contract sits between them. The reference engine lives in
// internal/engine; the root livepreview package wires the stages together
// and owns scheduling and staleness.
package pipeline
