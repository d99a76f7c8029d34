package malloc

// managedlist every block a heap has handed out and not yet reclaimed,
// singly linked through the block headers. Owned by the heap's
// goroutine, reclaim never races with foreign frees because those only
// touch the state word.
type managedlist struct {
	head *blockheader
	tail *blockheader

	// two pointer cursor for O(1) splicing during reclaim.
	cursorprev *blockheader
	cursorcur  *blockheader
}

// attachused stamp the block used and link it at the tail.
func (ml *managedlist) attachused(blk *blockheader) {
	if blk == nil {
		return
	}
	blk.next = nil
	blk.storeused()
	if ml.tail == nil {
		ml.head, ml.tail = blk, blk
		return
	}
	ml.tail.next = blk
	ml.tail = blk
}

// resetcursor point the cursor at the head for a fresh reclaim pass.
func (ml *managedlist) resetcursor() {
	ml.cursorprev, ml.cursorcur = nil, ml.head
}

// reclaimnext advance the cursor past used blocks, splice out and
// return the first free block, nil when the list is exhausted.
func (ml *managedlist) reclaimnext() *blockheader {
	for ml.cursorcur != nil {
		cur := ml.cursorcur
		if cur.loadstate() == blockused {
			ml.cursorprev, ml.cursorcur = cur, cur.next
			continue
		}
		if ml.cursorprev == nil {
			ml.head = cur.next
		} else {
			ml.cursorprev.next = cur.next
		}
		if ml.tail == cur {
			ml.tail = ml.cursorprev
		}
		ml.cursorcur = cur.next
		cur.next = nil
		return cur
	}
	return nil
}

func (ml *managedlist) empty() bool {
	return ml.head == nil
}
