// Package rpc serves project queries to an editor over JSON-RPC 2.0.
//
// Messages are framed with Content-Length headers. Every method takes a
// named-parameter object:
//
//	info         {class, pattern, mode, public_only}  -> [CompletionItem]
//	location     {class, member}                      -> [path, line|label]
//	nsuse        {path}                               -> {namespace, class, imports}
//	functype     {class, name}                        -> [type]
//	proptype     {class, name}                        -> [type]
//	psr4ns       {path}                               -> [namespace]
//	doc          {class, name, is_method}             -> {path, doc}
//	update       {class}                              -> true
//	ls           {name, interface}                    -> [class]
//	descendants  {name, interface}                    -> [class]
//	index        {}                                   -> Stats
//
// While index runs, the server sends progress/open {total},
// progress/increment and progress/close notifications.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/mvp-joe/phpintel/internal/batch"
	"github.com/mvp-joe/phpintel/internal/source"
	"github.com/mvp-joe/phpintel/internal/symbols"
	"github.com/sourcegraph/jsonrpc2"
)

// Queries is the part of service.Service the server exposes.
type Queries interface {
	Info(class, pattern, mode string, publicOnly bool) ([]symbols.CompletionItem, error)
	Location(class, member string) symbols.Location
	NsUse(path string) *source.Facts
	FuncType(class, name string) []string
	PropType(class, name string) []string
	Psr4Ns(path string) ([]string, error)
	Doc(class, name string, isMethod bool) (path, doc string)
	Update(class string) error
	Ls(name string, isInterface bool) []string
	Descendants(name string, isInterface bool) ([]string, error)
	Index(ctx context.Context, progress batch.Progress) (*batch.Stats, error)
}

// Server dispatches JSON-RPC requests to Queries.
type Server struct {
	queries Queries
}

// NewServer creates a server.
func NewServer(queries Queries) *Server {
	return &Server{queries: queries}
}

type infoParams struct {
	Class      string `json:"class"`
	Pattern    string `json:"pattern"`
	Mode       string `json:"mode"`
	PublicOnly bool   `json:"public_only"`
}

type memberParams struct {
	Class    string `json:"class"`
	Member   string `json:"member"`
	Name     string `json:"name"`
	IsMethod bool   `json:"is_method"`
}

type pathParams struct {
	Path string `json:"path"`
}

type lsParams struct {
	Name      string `json:"name"`
	Interface bool   `json:"interface"`
}

// DocResult is the result of the doc method.
type DocResult struct {
	Path string `json:"path"`
	Doc  string `json:"doc"`
}

// Serve handles requests on rwc until the peer disconnects or ctx is done.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, s.Handler())

	select {
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	case <-conn.DisconnectNotify():
		return nil
	}
}

// Handler returns the request handler.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(s.handle)
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "info":
		var p infoParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		items, err := s.queries.Info(p.Class, p.Pattern, p.Mode, p.PublicOnly)
		if err != nil {
			return nil, invalidParams(err)
		}
		return items, nil

	case "location":
		var p memberParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return s.queries.Location(p.Class, p.Member), nil

	case "nsuse":
		var p pathParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return s.queries.NsUse(p.Path), nil

	case "functype":
		var p memberParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return s.queries.FuncType(p.Class, p.Name), nil

	case "proptype":
		var p memberParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return s.queries.PropType(p.Class, p.Name), nil

	case "psr4ns":
		var p pathParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return s.queries.Psr4Ns(p.Path)

	case "doc":
		var p memberParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		path, doc := s.queries.Doc(p.Class, p.Name, p.IsMethod)
		return DocResult{Path: path, Doc: doc}, nil

	case "update":
		var p memberParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		if err := s.queries.Update(p.Class); err != nil {
			return nil, err
		}
		return true, nil

	case "ls":
		var p lsParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return s.queries.Ls(p.Name, p.Interface), nil

	case "descendants":
		var p lsParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return s.queries.Descendants(p.Name, p.Interface)

	case "index":
		return s.queries.Index(ctx, &progressNotifier{ctx: ctx, conn: conn})
	}

	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
}

// decode unmarshals request params; absent params leave v at its zero value.
func decode(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return nil
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return invalidParams(err)
	}
	return nil
}

func invalidParams(err error) *jsonrpc2.Error {
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
}

// progressNotifier forwards index progress to the client. Notifications are
// fire-and-forget; a failed send is logged and otherwise ignored.
type progressNotifier struct {
	ctx  context.Context
	conn *jsonrpc2.Conn
}

func (n *progressNotifier) notify(method string, params interface{}) {
	if err := n.conn.Notify(n.ctx, method, params); err != nil {
		log.Printf("Warning: failed to send %s: %v", method, err)
	}
}

func (n *progressNotifier) Open(total int) {
	n.notify("progress/open", map[string]int{"total": total})
}

func (n *progressNotifier) Increment() {
	n.notify("progress/increment", nil)
}

func (n *progressNotifier) Close() {
	n.notify("progress/close", nil)
}
