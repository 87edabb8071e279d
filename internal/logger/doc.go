// Package logger configures the global zerolog logger: level split console and rolling file
// writers, stack traces at trace level, and a prometheus counter of log statements per level.
package logger
