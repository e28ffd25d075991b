package utils

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetTestFlag sets the flag `name` to `value` and restores its previous value once the test finishes.
func SetTestFlag(t *testing.T, name, value string) {
	t.Helper()
	flagHolder := flag.Lookup(name)
	require.NotNil(t, flagHolder, "Flag %s not found", name)
	prevValue := flagHolder.Value.String()
	t.Cleanup(func() { require.NoError(t, flag.Set(name, prevValue)) })
	require.NoError(t, flag.Set(name, value))
}
