/*
Package safezone implements the safe-zone functions of the geometric
method and the ownership wrapper that carries them.

A safe zone is a function Z over sketch space that is positive on an
admissible region around a shared reference point E. The protocol
invariant is that as long as every site's drift stays inside the zone,
the average drift does too, and the globally monitored estimate stays
within its accuracy band. Sites therefore only communicate when their
local zeta crosses zero.

Two function families are provided, one per query kind (self-join and
two-way join), each in an eikonal and a non-eikonal variant. The
non-eikonal variants are raw quadratic forms, cheap to evaluate; the
eikonal variants are distance-normalized and tighter.

Zone is the value wrapper used for transmission and holding: it pairs
an immutable Func with lazily allocated per-holder scratch, so that a
node's copy of the coordinator's zone carries its own O(Depth)
incremental-evaluation state. Assignment moves the scratch; Clone
produces a scratch-less copy that allocates on first use.
*/
package safezone
