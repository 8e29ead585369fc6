package settlement

import (
	"errors"
	"testing"

	"parlayhouse/internal/exchange"

	"github.com/stretchr/testify/require"
)

func TestOutcomeFor_OpenMarketIsStillPending(t *testing.T) {
	got := outcomeFor(exchange.Market{Status: "open"}, "yes")
	require.Equal(t, "", got)
}

func TestOutcomeFor_VoidMarketNeverCountsAgainstUser(t *testing.T) {
	got := outcomeFor(exchange.Market{Status: "settled", Void: true, ResolvedSide: "no"}, "yes")
	require.Equal(t, "void", got)
}

func TestOutcomeFor_MatchingSideWins(t *testing.T) {
	got := outcomeFor(exchange.Market{Status: "settled", ResolvedSide: "yes"}, "yes")
	require.Equal(t, "win", got)
}

func TestOutcomeFor_OppositeSideLoses(t *testing.T) {
	got := outcomeFor(exchange.Market{Status: "settled", ResolvedSide: "no"}, "yes")
	require.Equal(t, "loss", got)
}

func TestErrTransientWrap_IsTransient(t *testing.T) {
	wrapped := errTransientWrap(exchange.ErrMarketNotFound)
	require.True(t, errors.Is(wrapped, errTransient))
	require.True(t, errors.Is(wrapped, exchange.ErrMarketNotFound))
}

func TestErrTransientWrap_NilCauseStillTransient(t *testing.T) {
	require.True(t, errors.Is(errTransientWrap(nil), errTransient))
}
