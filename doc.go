/*
Package srag answers natural-language questions about severe acute
respiratory syndrome (SRAG) surveillance data.

A question enters a small fixed state machine. The router validates it (a
local denylist followed by a scope classifier) and picks one capability by
ordered keyword match: a conceptual explanation, a recent-news search, or a
translation of the question into a read-only query over the surveillance
table whose rows are then summarized. Every node execution is written to an
append-only audit log.

# Usage

	agent := srag.New(
		srag.WithGenerator(gen),     // ports.Generator, e.g. pkg/adapters/openai
		srag.WithDataStore(store),   // ports.DataStore, e.g. pkg/adapters/postgres
		srag.WithNewsSearcher(news), // ports.NewsSearcher, e.g. pkg/adapters/tavily
		srag.WithAuditSink(file.NewAuditLog("audit_log.jsonl")),
	)

	answer := agent.Ask(ctx, "Quantos casos de SRAG em mulheres em 2025?")

Ask always returns text. Failures of any capability surface as fixed
user-facing messages, never as errors; the catalog is configurable with
WithMessages.

# Graph

	router -> translation -> query_execution -> summarization
	router -> query_execution
	router -> explanation
	router -> news
	router -> summary

The summary node is never chosen by keyword. Agent.Summary starts the machine
there directly.
*/
package srag
