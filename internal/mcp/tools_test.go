package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mvp-joe/phpintel/internal/source"
	"github.com/mvp-joe/phpintel/internal/symbols"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for phpintel MCP tools:
// - NewMCPServer registers every tool and rejects nil queries
// - Each handler binds its arguments and returns the query result as JSON
// - Missing required arguments and a non-object arguments payload are tool errors
// - Boolean arguments sent as strings are coerced
// - php_ls switches to transitive descendants with recursive=true
// - Query errors become tool errors, not protocol errors

type mockQueries struct {
	lastMode   string
	lastPublic bool
}

func (m *mockQueries) Info(class, pattern, mode string, publicOnly bool) ([]symbols.CompletionItem, error) {
	if mode == "bogus" {
		return nil, errors.New("invalid static mode \"bogus\"")
	}
	m.lastMode = mode
	m.lastPublic = publicOnly
	return []symbols.CompletionItem{{Word: "getName", Abbr: "  + getName()", Kind: symbols.KindFunction, ICase: true}}, nil
}

func (m *mockQueries) Location(class, member string) symbols.Location {
	if class == "Unknown" {
		return symbols.Location{}
	}
	return symbols.Location{Path: "/p/src/User.php", Line: 12}
}

func (m *mockQueries) NsUse(path string) *source.Facts {
	facts := source.NewFacts()
	facts.Namespace = "App"
	facts.Class = "User"
	return facts
}

func (m *mockQueries) FuncType(class, name string) []string {
	return []string{`\App\Collection`}
}

func (m *mockQueries) PropType(class, name string) []string {
	return []string{`\App\Profile`}
}

func (m *mockQueries) Psr4Ns(path string) ([]string, error) {
	if path == "outside.php" {
		return nil, errors.New("failed to read composer.json")
	}
	return []string{`App\Model`}, nil
}

func (m *mockQueries) Ls(name string, isInterface bool) []string {
	if isInterface {
		return []string{`App\Base`}
	}
	return []string{}
}

func (m *mockQueries) Descendants(name string, isInterface bool) ([]string, error) {
	return []string{`App\Base`, `App\User`}, nil
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args interface{}) (string, bool) {
	t.Helper()

	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	})
	require.NoError(t, err, "should not return system error")
	require.NotNil(t, result)

	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")
	return textContent.Text, result.IsError
}

func TestNewMCPServer(t *testing.T) {
	t.Parallel()

	s, err := NewMCPServer(&mockQueries{}, "test")
	require.NoError(t, err)
	require.NotNil(t, s.Server())

	// mcp-go doesn't expose the tool list directly, so ask over JSON-RPC.
	response := s.Server().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(response)
	require.NoError(t, err)
	for _, name := range []string{"php_info", "php_location", "php_nsuse", "php_functype", "php_proptype", "php_psr4ns", "php_ls"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}

	_, err = NewMCPServer(nil, "test")
	assert.Error(t, err)
}

func TestInfoHandler(t *testing.T) {
	t.Parallel()

	queries := &mockQueries{}
	handler := createInfoHandler(queries)

	text, isErr := call(t, handler, map[string]interface{}{"class": `App\User`, "mode": "static", "public_only": "true"})
	require.False(t, isErr, text)

	var items []symbols.CompletionItem
	require.NoError(t, json.Unmarshal([]byte(text), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "getName", items[0].Word)
	assert.Equal(t, "static", queries.lastMode)
	assert.True(t, queries.lastPublic, "string boolean is coerced")

	text, isErr = call(t, handler, map[string]interface{}{})
	assert.True(t, isErr)
	assert.Contains(t, text, "class or pattern parameter is required")

	text, isErr = call(t, handler, map[string]interface{}{"class": "User", "mode": "bogus"})
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid static mode")

	text, isErr = call(t, handler, "not an object")
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid arguments format")
}

func TestLocationHandler(t *testing.T) {
	t.Parallel()

	handler := createLocationHandler(&mockQueries{})

	text, isErr := call(t, handler, map[string]interface{}{"class": "User", "member": "getName"})
	require.False(t, isErr)
	assert.JSONEq(t, `{"path": "/p/src/User.php", "line": 12, "found": true}`, text)

	text, isErr = call(t, handler, map[string]interface{}{"class": "Unknown", "member": "x"})
	require.False(t, isErr)
	assert.JSONEq(t, `{"path": "", "found": false}`, text)

	_, isErr = call(t, handler, map[string]interface{}{})
	assert.True(t, isErr)
}

func TestNsUseHandler(t *testing.T) {
	t.Parallel()

	handler := createNsUseHandler(&mockQueries{})

	text, isErr := call(t, handler, map[string]interface{}{"path": "/p/src/User.php"})
	require.False(t, isErr)
	assert.JSONEq(t, `{"namespace": "App", "class": "User", "imports": {"@": ""}}`, text)

	text, isErr = call(t, handler, map[string]interface{}{})
	assert.True(t, isErr)
	assert.Contains(t, text, "path parameter is required")
}

func TestTypeHandlers(t *testing.T) {
	t.Parallel()

	queries := &mockQueries{}

	text, isErr := call(t, createTypeHandler(queries.FuncType), map[string]interface{}{"class": "User", "member": "all"})
	require.False(t, isErr)
	assert.JSONEq(t, `["\\App\\Collection"]`, text)

	text, isErr = call(t, createTypeHandler(queries.PropType), map[string]interface{}{"class": "User", "member": "$profile"})
	require.False(t, isErr)
	assert.JSONEq(t, `["\\App\\Profile"]`, text)

	text, isErr = call(t, createTypeHandler(queries.FuncType), map[string]interface{}{"class": "User"})
	assert.True(t, isErr)
	assert.Contains(t, text, "member parameter is required")
}

func TestPsr4NsHandler(t *testing.T) {
	t.Parallel()

	handler := createPsr4NsHandler(&mockQueries{})

	text, isErr := call(t, handler, map[string]interface{}{"path": "src/Model/User.php"})
	require.False(t, isErr)
	assert.JSONEq(t, `["App\\Model"]`, text)

	text, isErr = call(t, handler, map[string]interface{}{"path": "outside.php"})
	assert.True(t, isErr)
	assert.Contains(t, text, "composer.json")
}

func TestLsHandler(t *testing.T) {
	t.Parallel()

	handler := createLsHandler(&mockQueries{})

	text, isErr := call(t, handler, map[string]interface{}{"name": `App\HasName`, "interface": true})
	require.False(t, isErr)
	assert.JSONEq(t, `["App\\Base"]`, text)

	text, isErr = call(t, handler, map[string]interface{}{"name": `App\Base`})
	require.False(t, isErr)
	assert.JSONEq(t, `[]`, text)

	text, isErr = call(t, handler, map[string]interface{}{"name": `App\HasName`, "interface": true, "recursive": true})
	require.False(t, isErr)
	assert.JSONEq(t, `["App\\Base", "App\\User"]`, text)

	_, isErr = call(t, handler, map[string]interface{}{"interface": true})
	assert.True(t, isErr)
}
