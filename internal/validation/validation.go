// Package validation binds request data into payload types and validates
// it.
//
// It uses the `validator` library to enforce rules defined in struct
// tags, lets payloads add rules tags cannot express, and extracts
// failures into field errors the client can understand.
package validation
