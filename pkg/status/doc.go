/*
Package status tracks what a rule did to each file of a worker run and owns the
write-back of rewritten files.

	+-------------+        +-------------+
	|   worker    | -----> |   Manager   |
	| (rule pass) |        | (tracking)  |
	+-------------+        +------+------+
	                              |
	                 +------------+------------+
	                 |                         |
	          +------+------+           +------+------+
	          | atomic write|           |  Formatter  |
	          |  (rename)   |           | (summaries) |
	          +-------------+           +-------------+

🎯 Purpose:
- Counts ok / unmodified / skipped / error results for one rule pass
- Writes rewritten files through a temp file and rename
- Formats progress and result summaries

⚡ Concurrency:
The Manager is shared by every worker goroutine of a pass; all tracking goes
through its mutex. Files are written by the goroutine that processed them.
*/
package status
