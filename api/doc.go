// Package api defines the request and response payloads of the botflow HTTP API.
//
// # API Overview
//
// botflow exposes a small RESTful API around the blueprint compiler:
//   - POST /api/v1/blueprints/compile compiles a blueprint into a workflow graph
//   - POST /api/v1/blueprints/validate runs validation only
//   - POST /api/v1/blueprints/export?target=n8n compiles and adapts to an engine
//   - GET /api/v1/node-types lists the node-type registry
//   - GET /api/v1/blueprints/live streams validation results over WebSocket
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
package api
