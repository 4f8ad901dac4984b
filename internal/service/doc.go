// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// For this application that means the task CRUD flows: validating input
// before any persistence is attempted, diffing old and new task state
// through the audit registry, and handing the store a merged task together
// with its (possibly empty) change summary so each mutation and its history
// entry land in one transaction.
package service
