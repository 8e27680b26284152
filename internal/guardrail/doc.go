// Package guardrail holds the validators that gate the machine: questions on
// the way in, generated queries before execution and news before it is shown.
package guardrail
