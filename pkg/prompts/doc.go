// Package prompts holds the prompt templates of the question-answering
// pipeline, the embedded few-shot exemplar pack and TSV rendering of query
// results.
//
// Set DEBUG_LLM_PROMPTS=true to log every generated prompt at debug level.
package prompts
