// Package http provides HTTP handlers and middleware for the training CRM API.
//
// The router exposes the following endpoints:
//   - GET /sessions, POST /sessions: list and book sessions. A POST body whose
//     recurrence.type is daily, weekly or monthly books a whole series and
//     returns the created instances plus any skipped occurrences; otherwise a
//     single session is created.
//   - GET /sessions/{id}, PATCH /sessions/{id}, DELETE /sessions/{id}: fetch,
//     partially update or remove one session. Time changes are re-checked for
//     conflicts before they land.
//   - PUT /sessions/{id}/status: transition a session's lifecycle status. An
//     `admin_override` flag allows correcting terminal states.
//   - POST /sessions/check-conflicts: dry-run conflict detection for a
//     candidate window, returning conflicts and alternative slots.
//   - GET /sessions/groups: inferred recurring groups with per-group stats.
//   - DELETE /sessions/groups/{groupId}: remove every session in a series.
//   - GET /leads, POST /leads, GET/PUT/DELETE /leads/{id},
//     POST /leads/{id}/convert: lead management and conversion to students.
//   - GET /trainers, POST /trainers, GET/PUT/DELETE /trainers/{id}: trainer
//     catalog.
//   - GET /tasks, POST /tasks, GET/PATCH/DELETE /tasks/{id}: follow-up tasks.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
