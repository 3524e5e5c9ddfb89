// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the embedding provider, the journal entry
// store, and the optional LLM service.
package driven
