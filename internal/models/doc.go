// Package models defines the shared domain types for the wyy music
// aggregation service.
//
// All types here are Data Transfer Objects: lightweight structs carried
// between provider adapters, the aggregation engine, the HTTP layer and
// the CLI. Nothing in this package is persisted by the engine itself;
// persistence of favorites, history and settings is the caller's
// responsibility.
//
//   - [Song] : unified result record, keyed by (Source, ID)
//   - [ProviderResult] : one provider's batch plus provenance for a single search
//   - [PlayDetails] : resolved playback URL with optional lyric payload
//   - [Artist], [Playlist] : detail lookup subjects
//   - [DiagnosticResult] : endpoint probe outcome
package models
