/*
Package status defines the lifecycle vocabulary shared by the file engine, the
operation registry and every presentation surface.

	 +-----------+     +------------+     +-------------+
	 | operation | --> |  Progress  | --> |  registry   |
	 |  (engine) |     |  snapshots |     | (observers) |
	 +-----------+     +------------+     +-------------+
	                         |
	                   +-----+------+
	                   | formatters |
	                   |  (CLI/UX)  |
	                   +------------+

🎯 Purpose:
- Names operation kinds (copy, move, delete) and their progress event names
- Names the operation states and which of them are terminal
- Carries the progress snapshot that flows from engine to observers
- Renders progress and outcomes for terminals

🔄 State machine:

	Running -> Done | PartiallySucceeded | Failed | Cancelled

Terminal states never transition again.

🔍 Example:

	f := status.NewDefaultFileFormatter()
	fmt.Println(f.FormatProgress(status.KindCopy, p))
*/
package status
