package broadcast

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID returns the runtime id of the calling goroutine, parsed from
// the "goroutine N [" header of its stack trace. Dispatch uses it to tell a
// handler calling back on the delivering goroutine, which must not wait,
// from another goroutine, which must.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic("broadcast: cannot parse goroutine id: " + err.Error())
	}
	return id
}
