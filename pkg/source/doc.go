/*
Package source provides the record cursors that feed a simulation:
buffered replayable datasets, attribute-rewriting filters (bounded
length, modulo partitioning of streams and sites), sliding time
windows that expire records as deletes, and deterministic synthetic
generators.

Sources compose into a shaping pipeline before the feed:

	ds := source.Generate(spec)
	src := source.Filtered(source.NewBuffered(ds), source.MaxLength(n))
	src = source.Filtered(src, source.ModuloSources(k))
	src = source.TimeWindow(src, tw)
*/
package source
