// Package llm talks to hosted language models to classify receipt items.
// It supports OpenAI and Anthropic chat endpoints behind a single Client
// interface, and keeps prompt building and response parsing as pure
// functions so the network call can be swapped out in tests.
package llm
