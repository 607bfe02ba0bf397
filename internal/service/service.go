// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives
// validated input from the handler, calls the product store and turns
// store outcomes into application errors where the meaning is domain
// specific (a missing product). Other store failures are returned as is
// and classified by storeerr at the handler boundary.
package service
