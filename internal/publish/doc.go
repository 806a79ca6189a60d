// Package publish builds the post title for a rendered reel and uploads the
// file through the Upload-Post API.
//
// Upload failures never remove the rendered file: every transport or status
// failure comes back as a *TransportError carrying the file path so the
// caller can report where the video was kept.
package publish
