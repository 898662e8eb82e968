package graph

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_RespondsByName(t *testing.T) {
	mem := NewMemoryClient().
		Respond("load_case", Result{Records: []Record{{"sender": "V"}}}).
		Respond("load_case", Result{Records: []Record{{"sender": "W"}}})

	params := map[string]any{"caseId": "C-1"}
	first, err := mem.Read(context.Background(), Query{Name: "load_case", Params: params})
	require.NoError(t, err)
	params["caseId"] = "mutated"
	second, err := mem.Read(context.Background(), Query{Name: "load_case"})
	require.NoError(t, err)
	empty, err := mem.Read(context.Background(), Query{Name: "list_cases"})
	require.NoError(t, err)

	assert.Equal(t, "V", first.Records[0]["sender"])
	assert.Equal(t, "W", second.Records[0]["sender"])
	assert.Empty(t, empty.Records)

	calls := mem.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "C-1", calls[0].Params["caseId"])
	assert.Equal(t, "list_cases", calls[2].Name)
}

func TestMemoryClient_FailuresAndLifecycle(t *testing.T) {
	boom := errors.New("boom")
	mem := NewMemoryClient().Fail("list_cases", boom).WithConnectivityError(boom)

	_, err := mem.Read(context.Background(), Query{Name: "list_cases"})
	assert.ErrorIs(t, err, boom)
	_, err = mem.Read(context.Background(), Query{Cypher: "RETURN 1"})
	assert.ErrorIs(t, err, ErrUnnamedQuery)
	assert.ErrorIs(t, mem.VerifyConnectivity(context.Background()), boom)

	assert.False(t, mem.Closed())
	require.NoError(t, mem.Close(context.Background()))
	assert.True(t, mem.Closed())
}

func TestObserve_LogsAndDelegates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mem := NewMemoryClient().
		Respond("load_case", Result{Records: []Record{{"sender": "V"}}}).
		Fail("list_cases", errors.New("timeout"))
	client := Observe(mem, logger)

	res, err := client.Read(context.Background(), Query{Name: "load_case"})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)

	_, err = client.Read(context.Background(), Query{Name: "list_cases"})
	require.Error(t, err)

	out := buf.String()
	assert.True(t, strings.Contains(out, "graph read") && strings.Contains(out, "query=load_case"))
	assert.Contains(t, out, "graph read failed")
	require.NoError(t, client.Close(context.Background()))
	assert.True(t, mem.Closed())
}

func TestNewNeo4jClient_RequiresURI(t *testing.T) {
	_, err := NewNeo4jClient(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrMissingURI)
}
