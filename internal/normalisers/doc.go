// Package normalisers provides implementations of the Normaliser interface
// for the document formats pdfchat can ingest. Each normaliser knows how to
// extract plain text from files with specific extensions.
//
// Normalisers are registered with the Registry at startup.
package normalisers
