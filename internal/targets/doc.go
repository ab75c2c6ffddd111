// Package targets defines the closed TargetSpec vocabulary and the diff
// allow-lists each migration target is permitted to introduce.
package targets
