package settlement

import "errors"

// errTransient marks a per-parlay failure as retryable on a later pass
// (e.g. a venue 5xx). Anything else surfaces as a permanent failure that
// flips the parlay to needs_attention and pages an operator.
var errTransient = errors.New("settlement: transient failure")

// errFillOutcomePending means a hedge fill arrived before its leg's
// market settled; P&L can't be accounted until the outcome is known, so
// the fill is left unmarked and retried on a later pass.
var errFillOutcomePending = errors.New("settlement: fill outcome not yet known")

// errFillAlreadyApplied means another pass already stamped this hedge
// order's fills between the select and the update; the pool move this
// call computed must not be committed.
var errFillAlreadyApplied = errors.New("settlement: fill already applied")
