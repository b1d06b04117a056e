// Package scheduler runs a job on a cron schedule.
//
// The Scheduler:
//   - Runs the job at every tick of a cron expression (default top of the hour)
//   - Applies a per-tick timeout
//   - Skips a tick while the previous one is still running
//   - Logs job failures and carries on with the next tick
package scheduler
