// Package http implements the HTTP handlers of the report server. Handlers
// parse and validate requests, call the services and shape responses; the
// pivot logic itself lives in the services and pivot packages.
//
// # Endpoints
//
//	POST /api/pivot            build from a JSON body
//	POST /api/pivot/upload     build from an uploaded CSV or XLSX file
//	GET  /api/reports          list saved reports
//	GET  /api/reports/{name}   download a saved report
//	GET  /api/health[/ready|/live|/stats]
//	GET  /api/version
//	GET  /metrics
//
// # Responses
//
// JSON results use the envelope
//
//	{"status": "success", "count": 8, "data": {...}}
//
// CSV and XLSX results are sent as attachments, HTML inline. Failures are
// RFC 7807 problem documents written by errors.ErrorHandler.
package http
