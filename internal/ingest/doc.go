// Package ingest runs ingest jobs over data sources.
//
// A Manager turns every data source root into one job. Each job builds a
// fixed number of file pipelines from the module templates, starts them,
// enumerates the data source and hands every file to exactly one pipeline
// worker. When enumeration ends, or the job is cancelled, every pipeline is
// shut down and the job's IngestReport is stored in the case database.
package ingest
