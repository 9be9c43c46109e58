// Package normalisers turns raw document bytes into plain text.
//
// Each subpackage handles one family of MIME types. Registry picks the
// highest-priority normaliser for a document's MIME type; DefaultRegistry
// returns one with every built-in format registered.
package normalisers
