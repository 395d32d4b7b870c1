/*
Package client provides a Go client library for the wire API exposed by
pkg/api.

The client wraps plain net/http calls against the bearer-token HTTP/JSON
contract: no connection pooling or certificate handling needed since
there is no mTLS handshake on this wire. One method per resource
operation, Go structs instead of wire-format messages, and errors that
carry the server's {message,code,type} body back to the caller intact.

# Usage

	c := client.New("http://localhost:7700", client.WithAPIKey(key))
	task, err := c.CreateIndex(ctx, "movies", "id")
	...
	result, err := c.Search(ctx, "movies", client.SearchRequest{Q: "heat"})

Every mutating call returns the task stub the server answers with;
callers that need the final outcome poll GetTask with the returned uid.
*/
package client
