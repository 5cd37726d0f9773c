// Package externals decides which imports stay out of a bundle.
//
// On the server target, third-party packages installed in node_modules and
// Node core modules are left as runtime require calls. The client target
// bundles everything.
package externals
