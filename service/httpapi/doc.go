// Package httpapi exposes the approval engine over HTTP: submission and
// decision endpoints, a pending listing, an audit listing and a websocket
// event stream. The package also provides a Client so that gates can submit
// to a remote engine with the same fail-closed behaviour as the in-process
// one.
package httpapi
