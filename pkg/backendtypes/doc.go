// Package backendtypes holds the configuration, request and response types shared by the HTTP
// server, the dispatch facade and the command line entry point.
//
// Configuration types carry yaml tags and are decoded by the config package. Request and
// response types carry json tags and describe the wire contract of every route:
//
//	POST /            {"message": <any>}      -> {"message": <same value>}
//	POST /api/ai      {"message": <any>, ...} -> upstream JSON body
//	POST /<backend>   {"message": "<text>"}   -> {"message": "<reply>", "model": "<id>"}
//
// Every failure is reported as {"error": "<text>"}.
package backendtypes
