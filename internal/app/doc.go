// Package app composes the country service from its parts and manages
// their lifecycle.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/country/     # Domain models (pure data structures)
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # CountryStore interface
//	│   ├── memory/         # In-memory implementation for tests and dev
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── services/countries/ # Reconciliation, queries, summary rendering
//	├── httpapi/            # HTTP handlers and routing
//	├── system/             # Lifecycle management
//	└── metrics/            # Prometheus collectors
//
// Business logic lives in services/; this package only wires it to
// storage, transport, and the process lifecycle.
package app
