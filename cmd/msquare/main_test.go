package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/msquare/pkg/domain"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "msquare version ")
}

func TestProjectCards(t *testing.T) {
	cards := projectCards([]domain.Project{
		{Title: "Villa", Category: domain.CategoryRenovation, Description: "Seaside", Media: []domain.Media{{ID: "m1"}}},
		{Title: "Loft", Category: domain.CategoryConstruction},
	})
	require.Len(t, cards, 2)
	assert.Equal(t, "Villa", cards[0].Title)
	assert.Contains(t, cards[0].Body, "**renovation** · Seaside")
	assert.Contains(t, cards[0].Body, "_1 media_")
	assert.NotContains(t, cards[1].Body, "media")
}

func TestMCPCommand_UnknownTransport(t *testing.T) {
	rootCmd.SetArgs([]string{"mcp", "--transport", "carrier-pigeon", "--config", t.TempDir() + "/none.yaml"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "unknown transport")
}
