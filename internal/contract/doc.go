// Package contract provides the validation kernel shared by every engine.
//
// This package contains identifier, envelope, reason-code, and payload value
// types plus the uniform Refuse response shape. All other internal packages
// import contract; contract imports nothing internal. This keeps the contract
// layer foundational with no circular dependencies.
//
// Key design constraints:
//   - Validation is pure and total: no panics, no external state, no clocks.
//   - Zero identifiers are construction bugs, never domain outcomes.
//   - Ok records carry self-attesting invariant flags: constructors fail when
//     a declared flag would be false, so the record's existence proves the
//     invariant held.
//   - NO float types in payload values - use int64 for numbers.
//   - Payload hashing uses RFC 8785 canonical JSON with domain separation.
package contract
