package chapter

import "testing"

func TestKeyedMutexTryLock(t *testing.T) {
	km := newKeyedMutex()

	if !km.TryLock("a") {
		t.Fatal("first TryLock should succeed")
	}
	if km.TryLock("a") {
		t.Fatal("second TryLock on held key should fail")
	}
	if !km.TryLock("b") {
		t.Fatal("different key must lock independently")
	}

	km.Unlock("a")
	if !km.TryLock("a") {
		t.Fatal("TryLock after Unlock should succeed")
	}
}

func TestKeyedMutexUnlockUnheldKeyIsNoop(t *testing.T) {
	km := newKeyedMutex()
	km.Unlock("never-held")
	if !km.TryLock("never-held") {
		t.Fatal("key should still be lockable")
	}
}
