// Package block extracts command-block declarations from annotated example
// sources and turns each one into a Block: a single executable unit with its
// declared inputs, outputs and literal arguments.
//
// A command block is a run of lines between two marker lines:
//
//	//  BeginCommandLineArgs
//	//    INPUTS:  BrainProtonDensitySlice.png
//	//    OUTPUTS: {NegatedImage.png}
//	//    ARGUMENTS: 255
//	//  EndCommandLineArgs
//
// Every line is normalized before it is classified: all "//" sequences and
// brace characters are removed, then surrounding whitespace and slashes are
// trimmed. Inside a block each non-blank line must have the shape KEY: VALUE
// with KEY one of INPUTS, OUTPUTS, ARGUMENTS or NOT_IMPLEMENTED. Anything else
// is a ParseError and aborts the whole run.
//
// The package never links blocks to each other; dependency edges are owned by
// package dag.
package block
