// Package rules classifies modules against the ordered rule set of a build
// target.
//
// A rule is either a leaf, pairing a predicate with a transformation
// chain, or a group holding nested rules. Evaluation walks the top-level
// list in declaration order and descends into groups in place. The first
// leaf whose predicate matches wins and evaluation stops there. A module no
// rule matches passes through untransformed.
//
// Rules are declared in the target configuration:
//
//	[[rules]]
//	name = "styles"
//	extensions = [".css"]
//	chain = [{ step = "style" }]
//
//	[[rules]]
//	name = "assets"
//
//	  [[rules.one_of]]
//	  types = ["image"]
//	  chain = [{ step = "url" }]
//
// Since only the first match counts, two rules whose predicates can match
// the same module make the later one partly unreachable. Validate reports
// such overlaps; with strict_rules they are configuration errors.
package rules
