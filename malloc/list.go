package malloc

// poollist intrusive doubly linked list of subpools, every operation
// O(1). A pool is a member of at most one poollist at a time.
type poollist struct {
	head  *subpool
	tail  *subpool
	count int64
}

func (pl *poollist) empty() bool {
	return pl.head == nil
}

func (pl *poollist) size() int64 {
	return pl.count
}

func (pl *poollist) front() *subpool {
	return pl.head
}

// pushfront `pool` shall not be a member of any list.
func (pl *poollist) pushfront(pool *subpool) {
	pool.prev, pool.next = nil, pl.head
	if pl.head != nil {
		pl.head.prev = pool
	} else {
		pl.tail = pool
	}
	pl.head = pool
	pl.count++
}

// popfront detach and return the head, nil when the list is empty.
func (pl *poollist) popfront() *subpool {
	pool := pl.head
	if pool == nil {
		return nil
	}
	pl.head = pool.next
	if pl.head != nil {
		pl.head.prev = nil
	} else {
		pl.tail = nil
	}
	pool.prev, pool.next = nil, nil
	pl.count--
	return pool
}

// remove detach `pool` from this list, behaviour is undefined when the
// pool is a member of another list.
func (pl *poollist) remove(pool *subpool) *subpool {
	if pool.prev != nil {
		pool.prev.next = pool.next
	} else {
		pl.head = pool.next
	}
	if pool.next != nil {
		pool.next.prev = pool.prev
	} else {
		pl.tail = pool.prev
	}
	pool.prev, pool.next = nil, nil
	pl.count--
	return pool
}
