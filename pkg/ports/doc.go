/*
Package ports defines the driven ports (interfaces) of the question router.

These interfaces decouple the routing and guardrail core from the services it
calls, so the machine runs the same against OpenAI, Postgres and Tavily in
production or against in-memory fakes in tests.

# Key Interfaces

  - Generator: free-text generation (explanations, summaries, scope classification).
  - Translator: question to read-only query.
  - DataStore: executes validated read-only queries.
  - NewsSearcher: recent news retrieval.
  - Summarizer: the aggregate executive summary.
  - AuditSink / AuditReader: append-only audit trail and its inspection side.
*/
package ports
