package vmm

import "testing"

func TestPageTableEntryFlags(t *testing.T) {
	var pte pageTableEntry

	pte.SetFlags(FlagValid | FlagRead)
	if !pte.HasFlags(FlagValid | FlagRead) {
		t.Fatalf("expected Valid|Read set, got %#x", pte)
	}
	if pte.HasFlags(FlagWrite) {
		t.Fatalf("Write should not be set, got %#x", pte)
	}
	if !pte.HasAnyFlag(FlagWrite | FlagRead) {
		t.Fatalf("HasAnyFlag should see Read even though Write is absent")
	}

	pte.ClearFlags(FlagRead)
	if pte.HasFlags(FlagRead) {
		t.Fatalf("Read should have been cleared, got %#x", pte)
	}
}

func TestPageTableEntryIsLeafVsInterior(t *testing.T) {
	var interior pageTableEntry
	interior.SetFlags(FlagValid)
	if interior.IsLeaf() {
		t.Fatal("an entry with only Valid set must not be a leaf")
	}

	var leaf pageTableEntry
	leaf.SetFlags(FlagValid | FlagReadWrite)
	if !leaf.IsLeaf() {
		t.Fatal("an entry with Read or Write set must be a leaf")
	}
}

func TestPageTableEntrySetFrameRoundTrips(t *testing.T) {
	var pte pageTableEntry
	pte.SetFlags(FlagValid | FlagReadWrite)

	const frame = uintptr(0x8000_0000 + 0x3000)
	pte.SetFrame(frame)

	if got := pte.Frame(); got != frame {
		t.Fatalf("Frame() = %#x, want %#x", got, frame)
	}
	if !pte.HasFlags(FlagValid | FlagReadWrite) {
		t.Fatalf("SetFrame must not disturb existing flag bits, got %#x", pte)
	}
}

func TestVpnBitsForSelectsEachLevel(t *testing.T) {
	// va with a distinct VPN index at each of the three levels.
	va := uintptr(2)<<30 | uintptr(3)<<21 | uintptr(5)<<12

	if got := vpnBitsFor(va, 2); got != 2 {
		t.Errorf("VPN[2] = %d, want 2", got)
	}
	if got := vpnBitsFor(va, 1); got != 3 {
		t.Errorf("VPN[1] = %d, want 3", got)
	}
	if got := vpnBitsFor(va, 0); got != 5 {
		t.Errorf("VPN[0] = %d, want 5", got)
	}
}
