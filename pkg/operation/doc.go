/*
Package operation implements the file engine: copy, move and delete as
cancellable, progress-reporting jobs.

	+-------------+     +-----------+     +-------------+
	|   Request   | --> |   plan    | --> |  run items  |
	| (canonical) |     | (measure) |     | (in order)  |
	+-------------+     +-----------+     +------+------+
	                                             |
	                                      +------+------+
	                                      |   Result    |
	                                      | (per item)  |
	                                      +-------------+

🎯 Purpose:
- Measures every source first so totals are known from the first progress event
- Copies through a temp file next to the destination, renamed into place on success
- Moves by atomic rename on one volume, copy-then-delete across volumes
- Deletes recursively one file at a time. Inside a folder the first failure stops
  that folder, so its later entries and the folder itself stay; other sources go on

🛑 Cancellation:
The context is checked between files and between chunks of a single file.
A cancelled copy removes its temp file; finished items are left as they are.

⚠️ Conflicts:
An existing destination is never overwritten unless Request.Overwrite is set.
Without it the item is skipped and reported with code ALREADY_EXISTS.
A folder is never replaced by a file or the other way round.

📊 Outcome:

	Done                every item succeeded
	PartiallySucceeded  some succeeded, some failed or conflicted
	Failed              none succeeded, or AbortOnError hit a failure
	Cancelled           the context was cancelled

🔍 Example:

	eng := operation.NewEngine(operation.Options{})
	res := eng.Execute(ctx, operation.Request{
		Kind:    status.KindCopy,
		Sources: []string{"/src/a.txt"},
		Target:  "/dst",
	}, nil)
*/
package operation
