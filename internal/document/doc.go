// Package document loads plain text from PDF files for LLM extraction.
//
// Text is pulled page by page with github.com/ledongthuc/pdf. Documents whose
// plain-text layer is empty or near-empty are retried through the row-based
// layout reader before giving up. Every file is also preflighted with pdfcpu;
// validation problems are logged but never block extraction, since many
// published papers carry minor structural defects that text readers tolerate.
package document
