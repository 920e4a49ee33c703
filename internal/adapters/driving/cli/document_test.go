package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "document", documentCmd.Use)
}

func TestDocumentListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ws := seedWorkspace("research")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"document", "list", ws.ID})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No documents")
}

func TestDocumentListCmd_RanksByRelevance(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ws := seedWorkspace("research")
	low := seedDocument(ws.ID, "Low relevance")
	high := seedDocument(ws.ID, "High relevance")

	lowScore, highScore := 0.2, 0.9
	low.Relevance = &lowScore
	high.Relevance = &highScore
	_ = docStore.Save(context.Background(), low)
	_ = docStore.Save(context.Background(), high)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"document", "list", ws.ID})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	out := buf.String()
	assert.Less(t, strings.Index(out, "High relevance"), strings.Index(out, "Low relevance"))
}

func TestDocumentShowCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ws := seedWorkspace("research")
	doc := seedDocument(ws.ID, "A paper")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"document", "show", doc.ID})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "A paper")
	assert.Contains(t, buf.String(), "(not scored)")
	assert.Contains(t, buf.String(), "(unassigned)")
}

func TestDocumentRescoreCmd_ErrorsWithoutServices(t *testing.T) {
	err := runDocumentRescore(documentRescoreCmd, []string{"ws-1"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestDocumentRescoreCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ws := seedWorkspace("research")
	seedDocument(ws.ID, "A paper")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"document", "rescore", ws.ID})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Workspace rescored")
}
