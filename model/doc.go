// Package model contains the governance data model shared by the risk,
// compliance, workflow and approval engines: approval requests and their
// actions, risk assessments, workflows and terminal responses.
//
// The sub-package `types` describes the tool service contract consumed by
// the execution tracker registry.
package model
