/*
Package log provides structured logging for drift using zerolog.

The surface is deliberately small: Init configures the process-wide
Logger (level, JSON or console output), WithComponent and WithNetwork
derive child loggers carrying the fields the simulator's components
tag their output with, and Errorf covers the common error-with-message
case. Before Init the logger discards everything, so tests can run
simulations without configuring output.

# Usage

	log.Init(log.Config{Level: "debug", Output: os.Stderr})

	coordLog := log.WithNetwork("coordinator", "selfjoin-demo")
	coordLog.Debug().Int64("round", 12).Msg("round started")

Protocol logging stays at debug level: a simulation can dispatch
millions of records, and the dispatch path must stay cheap.
*/
package log
