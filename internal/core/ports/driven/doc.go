// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// Driven ports are the capabilities the core consumes: fetching web
// pages, generating embeddings, streaming LLM completions, vector
// storage and session memory. Adapters under internal/adapters/driven
// implement these interfaces.
package driven
