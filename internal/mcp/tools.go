package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/phpintel/internal/source"
	"github.com/mvp-joe/phpintel/internal/symbols"
)

// Queries is the read-only part of service.Service the tools expose.
type Queries interface {
	Info(class, pattern, mode string, publicOnly bool) ([]symbols.CompletionItem, error)
	Location(class, member string) symbols.Location
	NsUse(path string) *source.Facts
	FuncType(class, name string) []string
	PropType(class, name string) []string
	Psr4Ns(path string) ([]string, error)
	Ls(name string, isInterface bool) []string
	Descendants(name string, isInterface bool) ([]string, error)
}

// InfoRequest is the php_info tool input.
type InfoRequest struct {
	Class      string `json:"class"`
	Pattern    string `json:"pattern"`
	Mode       string `json:"mode"`
	PublicOnly bool   `json:"public_only"`
}

// MemberRequest is the input of the tools that address a class member.
type MemberRequest struct {
	Class  string `json:"class"`
	Member string `json:"member"`
}

// PathRequest is the input of the tools that take a file.
type PathRequest struct {
	Path string `json:"path"`
}

// LsRequest is the php_ls tool input.
type LsRequest struct {
	Name      string `json:"name"`
	Interface bool   `json:"interface"`
	Recursive bool   `json:"recursive"`
}

// LocationResponse is the php_location tool output.
type LocationResponse struct {
	Path  string `json:"path"`
	Line  int    `json:"line,omitempty"`
	Label string `json:"label,omitempty"`
	Found bool   `json:"found"`
}

// AddTools registers every phpintel tool with an MCP server.
func AddTools(s *server.MCPServer, queries Queries) {
	AddInfoTool(s, queries)
	AddLocationTool(s, queries)
	AddNsUseTool(s, queries)
	AddFuncTypeTool(s, queries)
	AddPropTypeTool(s, queries)
	AddPsr4NsTool(s, queries)
	AddLsTool(s, queries)
}

// AddInfoTool registers the php_info tool.
func AddInfoTool(s *server.MCPServer, queries Queries) {
	tool := mcp.NewTool(
		"php_info",
		mcp.WithDescription("List completion candidates: constants, methods, properties and @property annotations of a class, or free functions and global constants when no class is given."),
		mcp.WithString("class",
			mcp.Description("Fully-qualified class name (e.g., 'App\\Model\\User'); omit to complete functions and constants")),
		mcp.WithString("pattern",
			mcp.Description("Typed prefix to filter by; required when class is omitted")),
		mcp.WithString("mode",
			mcp.Description("Static filter: both (default), nonstatic or static")),
		mcp.WithBoolean("public_only",
			mcp.Description("Only list public members (default: false)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createInfoHandler(queries))
}

func createInfoHandler(queries Queries) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if errResult := parseToolArguments(request); errResult != nil {
			return errResult, nil
		}
		var req InfoRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Class == "" && req.Pattern == "" {
			return mcp.NewToolResultError("class or pattern parameter is required"), nil
		}

		items, err := queries.Info(req.Class, req.Pattern, req.Mode, req.PublicOnly)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalToolResponse(items)
	}
}

// AddLocationTool registers the php_location tool.
func AddLocationTool(s *server.MCPServer, queries Queries) {
	tool := mcp.NewTool(
		"php_location",
		mcp.WithDescription("Find where a class, method, property, constant or free function is declared."),
		mcp.WithString("class",
			mcp.Description("Fully-qualified class name; omit to locate a free function")),
		mcp.WithString("member",
			mcp.Description("Method, property or constant name, or a function name when class is omitted; omit to locate the class itself")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createLocationHandler(queries))
}

func createLocationHandler(queries Queries) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if errResult := parseToolArguments(request); errResult != nil {
			return errResult, nil
		}
		var req MemberRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Class == "" && req.Member == "" {
			return mcp.NewToolResultError("class or member parameter is required"), nil
		}

		loc := queries.Location(req.Class, req.Member)
		return marshalToolResponse(LocationResponse{
			Path:  loc.Path,
			Line:  loc.Line,
			Label: loc.Label,
			Found: !loc.IsZero(),
		})
	}
}

// AddNsUseTool registers the php_nsuse tool.
func AddNsUseTool(s *server.MCPServer, queries Queries) {
	tool := mcp.NewTool(
		"php_nsuse",
		mcp.WithDescription("Show the namespace, declared class and use-imports of a PHP file."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the PHP file")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createNsUseHandler(queries))
}

func createNsUseHandler(queries Queries) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, errResult := bindPath(request)
		if errResult != nil {
			return errResult, nil
		}
		return marshalToolResponse(queries.NsUse(req.Path))
	}
}

// AddFuncTypeTool registers the php_functype tool.
func AddFuncTypeTool(s *server.MCPServer, queries Queries) {
	tool := mcp.NewTool(
		"php_functype",
		mcp.WithDescription("Resolve the return types of a method or free function to fully-qualified class names."),
		mcp.WithString("class",
			mcp.Description("Fully-qualified class name; omit for a free function")),
		mcp.WithString("member",
			mcp.Required(),
			mcp.Description("Method or function name")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createTypeHandler(queries.FuncType))
}

// AddPropTypeTool registers the php_proptype tool.
func AddPropTypeTool(s *server.MCPServer, queries Queries) {
	tool := mcp.NewTool(
		"php_proptype",
		mcp.WithDescription("Resolve the types of a property to fully-qualified class names."),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Fully-qualified class name")),
		mcp.WithString("member",
			mcp.Required(),
			mcp.Description("Property name, with or without '$'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createTypeHandler(queries.PropType))
}

func createTypeHandler(resolve func(class, name string) []string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if errResult := parseToolArguments(request); errResult != nil {
			return errResult, nil
		}
		var req MemberRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Member == "" {
			return mcp.NewToolResultError("member parameter is required"), nil
		}
		return marshalToolResponse(resolve(req.Class, req.Member))
	}
}

// AddPsr4NsTool registers the php_psr4ns tool.
func AddPsr4NsTool(s *server.MCPServer, queries Queries) {
	tool := mcp.NewTool(
		"php_psr4ns",
		mcp.WithDescription("Suggest the namespace a file should declare according to the PSR-4 mappings in composer.json."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the PHP file, absolute or relative to the project root")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createPsr4NsHandler(queries))
}

func createPsr4NsHandler(queries Queries) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, errResult := bindPath(request)
		if errResult != nil {
			return errResult, nil
		}
		namespaces, err := queries.Psr4Ns(req.Path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalToolResponse(namespaces)
	}
}

// AddLsTool registers the php_ls tool.
func AddLsTool(s *server.MCPServer, queries Queries) {
	tool := mcp.NewTool(
		"php_ls",
		mcp.WithDescription("List the implementors of an interface or the subclasses of a class from the hierarchy index. Run 'phpintel index' first."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Fully-qualified interface or class name")),
		mcp.WithBoolean("interface",
			mcp.Description("Treat name as an interface and list implementors (default: false)")),
		mcp.WithBoolean("recursive",
			mcp.Description("Include indirect descendants (default: false)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createLsHandler(queries))
}

func createLsHandler(queries Queries) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if errResult := parseToolArguments(request); errResult != nil {
			return errResult, nil
		}
		var req LsRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Name == "" {
			return mcp.NewToolResultError("name parameter is required"), nil
		}

		if !req.Recursive {
			return marshalToolResponse(queries.Ls(req.Name, req.Interface))
		}
		names, err := queries.Descendants(req.Name, req.Interface)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to walk hierarchy index: %v", err)), nil
		}
		return marshalToolResponse(names)
	}
}

func bindPath(request mcp.CallToolRequest) (*PathRequest, *mcp.CallToolResult) {
	if errResult := parseToolArguments(request); errResult != nil {
		return nil, errResult
	}
	var req PathRequest
	if err := bindArguments(request, &req); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err))
	}
	if req.Path == "" {
		return nil, mcp.NewToolResultError("path parameter is required")
	}
	return &req, nil
}
