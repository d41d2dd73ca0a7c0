// Package rag implements retrieval over a local persistent vector
// index. Documents are split into overlapping chunks, embedded with the
// Gemini embedding API, and stored in chromem; searches embed the query
// with the same function and return the closest chunks, either joined
// into a single context block or as scored results with source
// metadata.
package rag
