/*
Package runner drives an Agent from a line-oriented stream.

It reads one question per line, sanitizes it, runs it through the agent and
writes the reply with an IOHandler: plain text (optionally rendered as
markdown) for terminals, or JSON Lines for programs.

	r := runner.New(agent)
	r.Handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
	err := r.Run(ctx)
*/
package runner
