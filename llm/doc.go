// Package llm defines the provider-neutral message, tool and response
// model, the Provider interface vendor adapters implement, and the Engine
// that drives bounded tool-calling generation loops against any provider.
package llm
