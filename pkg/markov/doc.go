/*
Package markov provides a small, storage-agnostic toolkit for learning word
sequence statistics from sentences and producing new sentences from them.

Sentences are sanitized, split into overlapping windows of ChainLength+1
tokens, and every window is stored as a (key, next word) observation in a
Store. Generation performs bounded random walks over those observations and
keeps the longest of several attempts. A SQLite backed Store is included, as
is an in-memory one for tests and experiments.
*/
package markov
