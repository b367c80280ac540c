/*
Package http serves dialogue sessions over a JSON API.

	GET    /health
	GET    /info
	GET    /graph
	GET    /metrics                       (when a metrics handler is configured)
	GET    /sessions
	POST   /sessions                      {"session_id", "node_id", "content_index", "slot", "language"}
	GET    /sessions/{id}
	DELETE /sessions/{id}
	POST   /sessions/{id}/advance         {"separator"}
	POST   /sessions/{id}/select          {"slot"}
	POST   /sessions/{id}/back            {"reveal"}
	PUT    /sessions/{id}/language        {"language"}
	GET    /sessions/{id}/events          server-sent events, one View per change

The server keeps no dialogue state in memory: every request goes through the
session manager and its snapshot store.
*/
package http
