// Package service holds the orchestration layer: task lifecycle rules,
// agent administration, the employee biometric overview projection, and the
// background expiry sweeper. Services validate input, enforce the state
// machine, and delegate persistence to the store interfaces.
package service
