// Package jobs runs reconciliation routines in the background: asynq tasks per routine,
// a cron scheduled full reconciliation, and a redis lock so only one process runs a
// routine at a time.
package jobs
