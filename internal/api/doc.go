// Package api serves the HTTP API for a lighting session.
//
// Routes live under /api/v1:
//
//	GET    /health                      component health and uptime
//	GET    /devices[?room=N]            discovered devices with cached levels
//	GET    /devices/{id}
//	PUT    /devices/{id}/state          {"level":n} or {"on":bool}
//	POST   /devices/{id}/refresh        query the controller for the level
//	PUT    /devices/all/state           {"on":bool}
//	GET    /rooms                       rooms that have at least one device
//	GET    /scenes, /scenes/{name}
//	POST   /scenes                      {"name":"...","room":n?} snapshot
//	POST   /scenes/{name}/activate
//	POST   /scenes/{name}/prune         drop members no longer discovered
//	DELETE /scenes/{name}
//	GET    /schedules, /schedules/{name}
//	POST   /schedules                   {"name":"...","events":[...]}
//	PATCH  /schedules/{name}            {"enabled":bool}
//	POST   /schedules/{name}/activate, /schedules/{name}/deactivate
//	DELETE /schedules/{name}
//	GET    /discovery                   state and last result of discovery
//	POST   /discovery                   run a discovery pass
//	GET    /export[?format=json]        scenes and schedules as a backup bundle
//	POST   /import[?format=json]        upsert a backup bundle
//
// Errors are returned as an Error body carrying the request ID.
package api
