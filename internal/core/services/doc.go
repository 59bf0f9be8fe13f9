// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters) and pipeline stages.
//
// The Orchestrator is the only writer of material status.
package services
