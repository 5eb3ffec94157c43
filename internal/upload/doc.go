// Package upload delivers the final media artifact to the remote analysis
// service as a single multipart form submission and parses the response.
//
// There is no retry and no client-side timeout; a request ends when the server
// answers or the caller's context is cancelled.
package upload
