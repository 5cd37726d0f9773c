// Package bundler runs one target build from configuration to written
// artifacts.
//
// Resolution and linking are delegated to esbuild. A plugin hooks every
// resolve and load: imports on the server target go through the externals
// filter, every loaded file is classified by the rule matcher and handed
// to the chain executor, and images referenced from style sheets go to the
// asset inliner. Outputs are renamed and written by the output assembler,
// together with the client markup page and a build manifest.
//
// A build is all or nothing. The first error aborts it and nothing is
// written.
package bundler
