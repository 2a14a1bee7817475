// Package runner executes editor snippets.
//
// JavaScript runs in a fresh goja interpreter per call with only a console
// object bound; TypeScript is transpiled and then run the same way; Go runs
// in a yaegi interpreter restricted to a small stdlib allowlist. Languages
// without a live runner fall back to a simulated run that describes the
// situation for the AI analysis.
//
// A Dispatcher maps language ids to runners and bounds how many live
// executions may be in flight at once:
//
//	d := runner.NewDispatcher(runner.NewSimulated(), 4)
//	d.Register("javascript", runner.NewJavaScript())
//	res, err := d.Run(ctx, lang, code)
package runner
