// Package domain defines the core business entities for studypipe.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Material: One uploaded document and the state of its pipeline run
//   - ArtifactSet: Where each stage of a run reads and writes
//   - TextBlock: A recognised, labelled unit of page text
//   - QuizQuestion, Flashcard: Generated learning artifacts
//   - AnswerSubmission, Explanation: Quiz attempts and tutor feedback
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
