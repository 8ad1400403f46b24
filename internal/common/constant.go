// Package common contains shared constants and sentinel errors used across
// ReadyInterview client components.
package common

// BlobURLPrefix marks a transient, tab-local object URL. Values with this
// prefix are never durable and must not be persisted.
const BlobURLPrefix = "blob:"

// DefaultLanguage is the language every translation lookup falls back to.
const DefaultLanguage = "en"
