//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of the mate
// store interfaces. It is designed for deployment on Google Cloud Platform
// and supports isolation through Datastore namespaces.
//
// # Datastore Kinds
//
// The package uses a single kind:
//   - Mate: account records, keyed by email
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	mateStore := gae.NewMateStore(client, "") // default namespace
package gae
