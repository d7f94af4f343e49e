package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/sagequery/internal/cli"
	"github.com/rshade/sagequery/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		require.NotNil(t, root)
		assert.Equal(t, "sagequery", root.Use)
		assert.True(t, root.HasSubCommands())
	})
}

func TestExtractExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: 0},
		{name: "exit error", err: &cli.ExitError{Code: 2, Reason: "query returned no results"}, want: 2},
		{name: "wrapped exit error", err: fmt.Errorf("outer: %w", &cli.ExitError{Code: 3, Reason: "x"}), want: 3},
		{name: "joined exit error", err: errors.Join(errors.New("a"), &cli.ExitError{Code: 4, Reason: "b"}), want: 4},
		{name: "generic error", err: errors.New("boom"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractExitCode(tt.err))
		})
	}
}
