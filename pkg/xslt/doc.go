// Package xslt compiles XSLT 1.0 stylesheets and applies them to parsed
// XML documents through libxslt.
//
// A Stylesheet is compiled per request and must be closed. Apply honours
// context cancellation: when the context ends first, Apply returns and the
// native transform finishes in the background; the compiled stylesheet is
// released once the last running transform returns.
package xslt
