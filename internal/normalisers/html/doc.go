// Package html normalises HTML policy pages to plain text. Scripts and styles
// are dropped, entities decoded and block elements kept as line breaks so
// numbered section headers survive for the section splitter.
package html
