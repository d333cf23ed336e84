// Package constants holds string values shared between configuration and the layers that read it.
package constants

const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)

// Pub/Sub providers
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Account store drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMongo    = "mongo"
	StorageDriverMemory   = "memory"
)

// RequestIDAttribute is the Pub/Sub message attribute carrying the originating request ID.
const RequestIDAttribute = "request_id"
