// Package etl implements the transformation-and-load core: raw record
// parsing, declarative field transformation, columnar artifact write and
// discovery, and relational load reconciliation.
package etl

import "aqueduct/internal"

var logger = internal.Logger
