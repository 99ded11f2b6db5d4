package ports

import "github.com/bft-labs/modelstation/pkg/log"

// Logger re-exports the logging abstraction so application packages only
// import ports for their infrastructure needs.
type Logger = log.Logger

// Field is a structured logging key-value pair.
type Field = log.Field

// Field constructors, re-exported for convenience.
var (
	String   = log.String
	Strings  = log.Strings
	Int      = log.Int
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
