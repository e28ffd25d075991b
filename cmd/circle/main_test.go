package main

import (
	"testing"

	"github.com/nobletooth/circle/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestFlagsAreRegisteredInConfig(t *testing.T) {
	for _, flagErr := range config.CollectUnregisteredFlags() {
		assert.NoError(t, flagErr)
	}
}
