/*
Package protocol implements the geometric-method protocol kernel: the
per-site node state machine, the coordinator state machines of the
SGM, FGM and FRGM variants, and the star network wiring them into a
simulation.

The common structure of all variants: the coordinator owns the query
state (the global reference E and the estimate built on it) and opens
a round by broadcasting a safe zone built around E to every site.
Sites accumulate local drift and watch their zeta; communication
happens only when a site's drift threatens the zone. The coordinator
then either rebalances a subset of sites (a sub-round) or collects all
drifts, advances E by the mean drift, and opens the next round.

Variants:

  - SGM reacts to single-site violations; the rebalancing strategies
    none, random and random_limits grow a balancing set until the
    averaged drift is admissible again. rebalance_none under more than
    one site simply finishes the round; it is a benchmarking baseline,
    not a fallback. With a single site only none is meaningful and it
    is forced regardless of configuration.

  - FGM monitors the total zeta mass of the sites through quantized
    progress reports, refreshing thresholds in sub-rounds until the
    mass is exhausted. With the cost model enabled the next quantum is
    derived from the remaining mass; otherwise quanta halve.

  - FRGM is FGM with rebalancing: at each sub-round boundary the most
    drifted half of the sites is averaged before new thresholds go
    out.

Everything is strictly single-threaded: simulated RPCs are function
calls mediated by the accounting network, and a violation raised
during record dispatch is fully resolved before the next record.
*/
package protocol
