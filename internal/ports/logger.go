package ports

import "github.com/bft-labs/libero2lerobot/pkg/log"

// Logger is the structured logger every component receives.
type Logger = log.Logger

// Field is a structured logging key-value pair.
type Field = log.Field

// Field constructors, re-exported so the app layer imports only ports.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Stack    = log.Stack
)
