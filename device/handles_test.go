// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestHandleTable(t *testing.T) {
	c := qt.New(t)

	var table handleTable[string]
	a := table.add("a")
	b := table.add("b")
	c.Assert(a, qt.Not(qt.Equals), uint64(0))
	c.Assert(b, qt.Not(qt.Equals), a)
	c.Assert(table.len(), qt.Equals, 2)

	v, ok := table.get(b)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, "b")

	v, ok = table.remove(a)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, "a")
	_, ok = table.get(a)
	c.Assert(ok, qt.IsFalse)
	_, ok = table.remove(a)
	c.Assert(ok, qt.IsFalse)

	// Handles are never reused
	c.Assert(table.add("c"), qt.Equals, b+1)
}

func TestHandleTableOwned(t *testing.T) {
	c := qt.New(t)

	var table handleTable[string]
	own := table.add("caller")
	a := table.addOwned("gpu0", 1)
	b := table.addOwned("gpu1", 1)
	other := table.addOwned("gpu0", 2)
	c.Assert(other, qt.Not(qt.Equals), a)

	// Enumerating again hands out the same handles
	c.Assert(table.addOwned("gpu0", 1), qt.Equals, a)
	c.Assert(table.addOwned("gpu1", 1), qt.Equals, b)
	c.Assert(table.len(), qt.Equals, 4)

	c.Assert(table.removeOwned(1), qt.Equals, 2)
	_, ok := table.get(a)
	c.Assert(ok, qt.IsFalse)
	_, ok = table.get(b)
	c.Assert(ok, qt.IsFalse)

	v, ok := table.get(other)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, "gpu0")
	_, ok = table.get(own)
	c.Assert(ok, qt.IsTrue)
	c.Assert(table.removeOwned(1), qt.Equals, 0)
}

func TestResultString(t *testing.T) {
	c := qt.New(t)

	c.Assert(ErrorDeviceLost.String(), qt.Equals, "VK_ERROR_DEVICE_LOST")
	c.Assert(Result(-1000).String(), qt.Equals, "VK_RESULT(-1000)")
}

func TestSafeStrings(t *testing.T) {
	c := qt.New(t)

	c.Assert(safeString("grvk"), qt.Equals, "grvk\x00")
	c.Assert(safeStrings([]string{"a", "b"}), qt.DeepEquals, []string{"a\x00", "b\x00"})
	c.Assert(safeStrings(nil), qt.HasLen, 0)
}
