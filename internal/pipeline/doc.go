// Package pipeline runs every file of a data source through an ordered chain
// of analysis modules.
//
// A FilePipeline is built from a list of module templates. StartUp creates one
// module instance per template, starts it, drops the ones that fail and orders
// the survivors by the configured class identifiers. Process hands a single
// file to every module in that order. ShutDown tears every started module
// down again.
//
// Design decision: The pipeline has no fatal path. Every failure of a module,
// whether a returned error or a panic, is converted into a ModuleError value at
// the call site and returned to the caller, and the chain carries on with the
// next module. The caller decides what to do with the collected errors.
//
// A FilePipeline is driven by a single goroutine and is not safe for
// concurrent use. Run several pipelines, each with its own module instances,
// to process files in parallel.
package pipeline
