// Package catalog implements the client for the imagery catalog and
// fulfillment service: paginated scene search, order submission, order
// status, and basemap mosaic listing. Transient failures retry with
// backoff; refused requests surface immediately through sentinel errors.
package catalog
