// Package exact provides histogram-based reference methods computing
// the true self-join and two-way join sizes next to the sketched
// protocols, for accuracy reporting and tests.
package exact
