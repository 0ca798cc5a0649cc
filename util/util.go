// Package util has a few helpers shared by every layer: a leveled
// debug tracer and small arithmetic functions.
package util

import "log"

const Debug uint64 = 0

func DPrintf(level uint64, format string, a ...interface{}) {
	if level <= Debug {
		log.Printf(format, a...)
	}
}

func Min(n uint64, m uint64) uint64 {
	if n < m {
		return n
	}
	return m
}

// RoundUp returns how many sz-sized units cover n.
func RoundUp(n uint64, sz uint64) uint64 {
	return (n + sz - 1) / sz
}

func Assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}
