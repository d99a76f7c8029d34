package malloc

import "testing"

func TestPoollistBasic(t *testing.T) {
	var pl poollist
	if pl.empty() == false {
		t.Errorf("expected empty list")
	} else if pl.size() != 0 {
		t.Errorf("expected %v, got %v", 0, pl.size())
	} else if pl.front() != nil {
		t.Errorf("expected nil front")
	} else if pl.popfront() != nil {
		t.Errorf("expected nil popfront")
	}

	a, b, c := &subpool{}, &subpool{}, &subpool{}
	pl.pushfront(a)
	pl.pushfront(b)
	pl.pushfront(c)
	if pl.size() != 3 {
		t.Errorf("expected %v, got %v", 3, pl.size())
	} else if pl.front() != c {
		t.Errorf("expected front c")
	}
	if x := pl.popfront(); x != c {
		t.Errorf("expected c")
	} else if x := pl.popfront(); x != b {
		t.Errorf("expected b")
	} else if x := pl.popfront(); x != a {
		t.Errorf("expected a")
	} else if pl.empty() == false {
		t.Errorf("expected empty list")
	}
}

func TestPoollistRemove(t *testing.T) {
	var pl poollist
	a, b, c := &subpool{}, &subpool{}, &subpool{}
	pl.pushfront(a)
	pl.pushfront(b)
	pl.pushfront(c) // list is c, b, a

	if x := pl.remove(b); x != b {
		t.Errorf("expected b")
	} else if pl.size() != 2 {
		t.Errorf("expected %v, got %v", 2, pl.size())
	} else if b.prev != nil || b.next != nil {
		t.Errorf("expected detached links")
	}
	if x := pl.popfront(); x != c {
		t.Errorf("expected c")
	} else if x := pl.popfront(); x != a {
		t.Errorf("expected a")
	}

	// remove head, remove tail
	pl.pushfront(a)
	pl.pushfront(b)
	pl.pushfront(c) // c, b, a
	if x := pl.remove(c); x != c {
		t.Errorf("expected c")
	} else if pl.front() != b {
		t.Errorf("expected front b")
	}
	if x := pl.remove(a); x != a {
		t.Errorf("expected a")
	} else if pl.front() != b || pl.tail != b {
		t.Errorf("expected singleton b")
	}
	if x := pl.remove(b); x != b {
		t.Errorf("expected b")
	} else if pl.empty() == false {
		t.Errorf("expected empty list")
	}
}
