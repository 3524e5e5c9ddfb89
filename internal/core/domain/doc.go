// Package domain contains the core business entities for the journal
// analysis pipeline: search directives, retrieval envelopes, journal entry
// records, and the structured report produced for the user.
//
// Domain types carry their own validation and repair rules so that every
// boundary (HTTP, MCP, LLM output) funnels through the same schema checks.
package domain
