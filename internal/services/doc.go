// Package services implements the Maintainerr REST client used by the session and the CLI.
//
// # Backend Interface
//
// [Backend] is the abstraction the session depends on. [MaintainerrService] implements it over HTTP.
// Tests substitute their own implementations.
//
// # Authentication
//
// Maintainerr authenticates every request with a static key sent in the X-Api-Key header.
// Calls made before [MaintainerrService.SetConfig] fail with [shared.ErrNotConfigured].
//
// # Pagination
//
// Library content is served in pages of [PageSize] items. [MaintainerrService.ListLibraryMedia]
// requests pages sequentially until the server-reported total is reached. A failed first page is an error;
// a failed later page truncates the result and is logged at warn level.
// Page requests can be paced with a [rate.Limiter] (see [MaintainerrService.SetPageRate]).
//
// # Error Handling
//
// Errors wrap sentinels so callers can branch with errors.Is:
//   - [shared.ErrNotConfigured] : no connection config set
//   - [ErrInvalidAPIKey] : the server answered 401 or 403
//   - [ErrConnectionFailed] : the status probe answered another non-2xx code
//   - [ErrInvalidLibrary] : a library id was rejected before any request
//   - [shared.ErrAPIRequest] : any other non-2xx response (see [StatusError])
//
// # API Mappings
//
// Raw Plex and Maintainerr payloads are converted to the models package types:
//   - plexMediaItem → [models.MediaItem] with the TMDB id lifted from tmdb:// guids
//   - maintainerrCollection → [models.Collection] with member Plex ids
//
// [APIService] is a raw passthrough used by the api command for debugging.
package services
