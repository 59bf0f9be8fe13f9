// Package driving defines the interfaces that external actors use to drive the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI depends on these interfaces rather than on concrete services.
//
// # Interfaces
//
//   - PipelineService: Runs the material pipeline and reports status
//   - ExplanationService: Explains incorrect quiz answers
//   - MaterialService: Read side for material records
//   - SettingsService: Reads and updates configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service implementation
package driving
