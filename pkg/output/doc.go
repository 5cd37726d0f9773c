// Package output names and writes build artifacts.
//
// Every file a build produces passes through an Assembler: bundles, style
// sheets, emitted assets, the markup page and the manifest. Names come from
// templates whose hash tokens are derived from artifact content, so
// identical content always gets the same name. Nothing reaches the disk
// until Flush, which lets a failed build leave the output directory alone.
package output
