// Package config loads, validates and assembles simulation
// configurations from YAML documents. Every configuration error is
// fatal at initialization; nothing is repaired silently.
package config
