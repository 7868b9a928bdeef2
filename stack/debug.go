package stack

import "fmt"

// debugState shadows the live allocations so out-of-order frees can be
// detected. Only present on stacks constructed WithDebug.
type debugState struct {
	live       []int // user offsets of live allocations, push order
	strictLIFO bool

	totalRequested int
	peakUsage      int
}

func (d *debugState) notePush(userOff, size int) {
	d.live = append(d.live, userOff)
	d.totalRequested += size
}

// notePop validates and removes the entry for userOff. Freeing a non-top
// entry drops every entry above it too, mirroring what the rewind does to
// the real stack.
func (d *debugState) notePop(userOff int) {
	n := len(d.live)
	if n == 0 {
		panic("stack: free with no live allocations")
	}
	top := d.live[n-1]
	if userOff != top {
		if d.strictLIFO {
			panic(fmt.Sprintf("stack: out-of-order free (offset %d, top is %d)", userOff, top))
		}
		if !d.isLive(userOff) {
			panic(fmt.Sprintf("stack: freeing offset %d which is not a live allocation", userOff))
		}
		d.dropAbove(userOff)
		return
	}
	d.live = d.live[:n-1]
}

func (d *debugState) isLive(off int) bool {
	for _, o := range d.live {
		if o == off {
			return true
		}
	}
	return false
}

// dropAbove removes every live entry at or above off.
func (d *debugState) dropAbove(off int) {
	n := len(d.live)
	for n > 0 && d.live[n-1] >= off {
		n--
	}
	d.live = d.live[:n]
}
