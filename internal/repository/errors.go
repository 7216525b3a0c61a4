package repository

import "errors"

// ErrDocumentNotFound is returned by Get, Update and Delete when the
// collection holds no document with the given id. Services translate this
// into a not-found error (HTTP 404).
var ErrDocumentNotFound = errors.New("document not found")

// ErrDocumentExists is returned by Create when a document with the same id
// already exists in the collection. Services translate this into a
// conflict error.
var ErrDocumentExists = errors.New("document already exists")
