// Package chain models transformation chains and executes them.
//
// A chain is the ordered list of steps a rule applies to the modules it
// matches. Source steps (transpile, define, strip) rewrite module text and
// feed their output to the next step. Directive steps (url, html, style,
// ignore) decide how the module is represented in the bundle and must be
// the only step of their chain.
//
// A chain carries a Scope built from the rule's include and exclude
// patterns. Modules outside the scope bypass every step and are returned
// byte for byte.
package chain
